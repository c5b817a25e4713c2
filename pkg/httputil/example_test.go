package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/myastroboard/astroboard/pkg/httputil"
)

func ExamplePolicy_BaseBackoff() {
	p := httputil.Policy{MaxAttempts: 6, BaseDelay: time.Second, MaxDelay: 12 * time.Second}
	for attempt := 1; attempt <= 5; attempt++ {
		fmt.Println(p.BaseBackoff(attempt))
	}
	// Output:
	// 1s
	// 2s
	// 4s
	// 8s
	// 12s
}

func ExampleRetrier_Do() {
	r := &httputil.Retrier{
		Policy: httputil.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		OnRetry: func(e httputil.Event) {
			fmt.Printf("retry %d/%d (%s)\n", e.Attempt, e.MaxAttempts, e.Reason)
		},
	}

	err := r.Do(context.Background(), func(ctx context.Context, attempt int) error {
		if attempt < 3 {
			return httputil.Retryable(httputil.ReasonHTTP, errors.New("503 Service Unavailable"))
		}
		return nil
	})
	fmt.Println("error:", err)
	// Output:
	// retry 1/3 (http)
	// retry 2/3 (http)
	// error: <nil>
}
