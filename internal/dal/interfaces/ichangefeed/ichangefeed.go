package ichangefeed

import (
	"context"
	"iter"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
)

// IChangeFeed streams committed changes of a collection.
//
// The returned sequence is lazy: nothing is subscribed until it is ranged
// over, and ranging again starts a fresh subscription. Every subscription
// first yields an OpSubscribed change once it is live; anything committed
// after that marker is delivered. Iteration ends when ctx is done, when the
// consumer stops, or after an error has been yielded.
type IChangeFeed interface {
	Subscribe(ctx context.Context, collection change.Collection) iter.Seq2[change.Change, error]
}
