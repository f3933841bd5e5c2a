package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jonwraymond/resourcecache/notify"
)

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func printUsers(w io.Writer, users []User) error {
	tw := newTable(w, "ID", "NAME", "TEAM", "EMAIL")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, orDash(u.Team), orDash(u.Email))
	}
	return tw.Flush()
}

func printTeams(w io.Writer, teams []Team) error {
	tw := newTable(w, "ID", "NAME", "MEMBERS")
	for _, t := range teams {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, orDash(strings.Join(t.Members, ",")))
	}
	return tw.Flush()
}

func printNotices(w io.Writer, notices []notify.Notification) {
	for _, n := range notices {
		fmt.Fprintf(w, "%s: %s", n.Kind, n.Title)
		if n.Message != "" {
			fmt.Fprintf(w, ": %s", n.Message)
		}
		if n.Details != "" {
			fmt.Fprintf(w, " (%s)", n.Details)
		}
		fmt.Fprintln(w)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
