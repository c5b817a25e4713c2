// Package ui projects fetch calls onto display containers.
//
// [FetchJSONWithUI] performs no retries of its own. It forwards retry
// events from the fetch client to a [Container] and maps the final
// outcome to one of the container's terminal states.
package ui
