package observe_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/resourcecache/observe"
)

func ExampleMiddleware_Wrap() {
	mw := observe.NewMiddleware(nil, nil, nil)

	load := mw.Wrap(func(ctx context.Context, meta observe.ResourceMeta) error {
		fmt.Println("fetching", meta.Resource)
		return nil
	})

	_ = load(context.Background(), observe.ResourceMeta{Resource: "users"})
	// Output: fetching users
}

func ExampleResourceMeta_SpanName() {
	meta := observe.ResourceMeta{Resource: "users", Operation: observe.OperationRefresh}
	fmt.Println(meta.SpanName())
	// Output: resource.refresh.users
}
