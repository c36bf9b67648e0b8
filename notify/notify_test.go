package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	got []Notification
	err error
}

func (r *recordingNotifier) Notify(ctx context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func TestOperatorMessage(t *testing.T) {
	ts := time.Date(2025, 2, 3, 10, 30, 0, 0, time.UTC)

	assert.Equal(t,
		"A new form submission has been received.\nForm ID: abc\nSubmitted At: 2025-02-03T10:30:00Z",
		OperatorMessage(Notification{FormID: "abc", Timestamp: ts}))

	assert.Equal(t,
		"A new form submission has been received.\nForm ID: N/A\nSubmitted At: 2025-02-03T10:30:00Z",
		OperatorMessage(Notification{Timestamp: ts}))

	assert.Equal(t,
		"A new form submission has been received.\nNo additional details were provided.",
		OperatorMessage(Notification{}))
}

func TestMultiDeliversToAll(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("smtp down")}
	ok := &recordingNotifier{}

	n := Notification{FormID: "abc", Timestamp: time.Now()}
	err := Multi{failing, ok, Log{}}.Notify(context.Background(), n)

	assert.ErrorContains(t, err, "smtp down")
	assert.Equal(t, []Notification{n}, failing.got)
	assert.Equal(t, []Notification{n}, ok.got)
}

func TestMultiEmpty(t *testing.T) {
	assert.NoError(t, Multi{}.Notify(context.Background(), Notification{FormID: "x"}))
}
