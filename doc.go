// Package multiclient provides a concurrent dispatch client for
// issuing many independent requests to a request/response API — such as
// an OpenAI-style completion service — while bounding concurrency,
// retrying transient failures with exponential backoff, and delivering
// results either in completion order or in strict submission order.
//
// The client is a library, not a service: construct one around an
// Invoker (the function that performs the actual remote call), submit
// payloads from one or more producer goroutines, and iterate outcomes.
//
// # Quick Start
//
//	api, err := multiclient.New[any](remote.NewClient(remote.WithToken(key)),
//	    multiclient.WithConcurrency(10),
//	    multiclient.WithEndpoint("chats"),
//	    multiclient.WithTemplate(map[string]any{"model": "gpt-3.5-turbo"}),
//	)
//
//	api.Produce(func() error {
//	    for i := 1; i <= 100; i++ {
//	        if err := api.Put(
//	            map[string]any{"prompt": fmt.Sprintf("This is test %d", i)},
//	            map[string]any{"id": i},
//	        ); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
//
//	for o := range api.All() {
//	    if o.Failed {
//	        log.Printf("request %v failed: %v", o.Metadata["id"], o.Err)
//	        continue
//	    }
//	    log.Printf("request %v: %v", o.Metadata["id"], o.Response)
//	}
//
// # Ordering
//
// By default outcomes arrive in completion order. WithOrdered() makes
// the consumer observe outcomes in exactly submission order instead;
// workers still execute concurrently, completed outcomes are simply
// buffered until their predecessors are delivered.
//
// # Failure handling
//
// Every invoker error is retried with backoff up to the configured
// maximum; after that the request yields a failed outcome carrying the
// last error. No single request's failure aborts the pool, other
// requests, or the stream — consumers check Outcome.Failed per result.
package multiclient
