// Package notify collects the messages a client shows its user about
// resource activity, most importantly load failures.
//
// Cancellations are not failures and are dropped. Errors that implement
// Detailer contribute extra detail to the notification.
package notify
