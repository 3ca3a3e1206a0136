package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/reflections-backend/internal/models"
)

type stubSubmitter struct {
	calls   atomic.Int32
	err     error
	last    Request
	started chan struct{}
	release chan struct{}
}

func (s *stubSubmitter) Submit(ctx context.Context, req Request) (*models.Reflection, error) {
	s.calls.Add(1)
	s.last = req
	if s.started != nil {
		s.started <- struct{}{}
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.Reflection{ID: "rec-1", Email: req.Email, Neighborhood: req.Neighborhood, Reflection: req.Reflection}, nil
}

type manualTimer struct {
	mu    sync.Mutex
	d     time.Duration
	fires []func()
}

func (m *manualTimer) afterFunc(d time.Duration, fn func()) *time.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d = d
	m.fires = append(m.fires, fn)
	return time.AfterFunc(time.Hour, func() {})
}

func (m *manualTimer) fire(i int) {
	m.mu.Lock()
	fn := m.fires[i]
	m.mu.Unlock()
	fn()
}

func filled(f *Form) {
	f.SetEmail("a@b.com")
	f.SetNeighborhood("King West")
	f.SetReflection("Hello")
}

func TestHoneypotTripped(t *testing.T) {
	cases := map[string]bool{
		"":                        false,
		"   ":                     false,
		"John":                    false,
		"autofill value":          false,
		"http://spam.example":     true,
		"HTTPS://x":               true,
		"www.cheap":               true,
		"example.com":             true,
		"  spam.biz  ":            true,
		"abcdefghijklmnopqrstuvw": true,
	}
	for value, want := range cases {
		assert.Equal(t, want, HoneypotTripped(value), "%q", value)
	}
}

func TestSubmitHoneypotSendsNothing(t *testing.T) {
	sub := &stubSubmitter{}
	f := New(sub)
	filled(f)
	f.SetHoneypot("https://buy-now.example")

	rec, err := f.Submit(context.Background())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrSuppressed)
	assert.Zero(t, sub.calls.Load())
	assert.Equal(t, StateIdle, f.State())
	assert.NoError(t, f.LastError())
	assert.Equal(t, "a@b.com", f.Values().Email)
}

func TestSubmitToleratesAutofillNoise(t *testing.T) {
	sub := &stubSubmitter{}
	f := New(sub, WithAfterFunc((&manualTimer{}).afterFunc))
	filled(f)
	f.SetHoneypot("Jane")

	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, sub.calls.Load())
}

func TestSubmitMissingFields(t *testing.T) {
	sub := &stubSubmitter{}
	f := New(sub)
	f.SetNeighborhood("Annex")
	f.SetReflection("   ")

	_, err := f.Submit(context.Background())
	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"email", "reflection"}, missing.Fields)
	assert.Zero(t, sub.calls.Load())
	assert.Equal(t, StateIdle, f.State())
}

func TestAttachFileRules(t *testing.T) {
	f := New(&stubSubmitter{})

	require.NoError(t, f.AttachFile(&File{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("x")}))
	require.NotNil(t, f.Values().File)

	err := f.AttachFile(&File{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Nil(t, f.Values().File)

	require.NoError(t, f.AttachFile(&File{Name: "clip.MOV", ContentType: "Video/QuickTime", Data: []byte("x")}))
	require.NoError(t, f.AttachFile(&File{Name: "edge.png", ContentType: "image/png", Data: make([]byte, MaxFileSize)}))
	require.NoError(t, f.AttachFile(nil))
	assert.Nil(t, f.Values().File)
}

func TestAttachFileTooLargeBlocksBeforeAnyRequest(t *testing.T) {
	sub := &stubSubmitter{}
	f := New(sub)
	filled(f)
	require.NoError(t, f.AttachFile(&File{Name: "ok.jpg", ContentType: "image/jpeg", Data: []byte("x")}))

	err := f.AttachFile(&File{Name: "huge.mp4", ContentType: "video/mp4", Data: make([]byte, 60<<20)})
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Nil(t, f.Values().File)
	assert.Zero(t, sub.calls.Load())
}

func TestSetReflectionTruncatesAndCounts(t *testing.T) {
	f := New(&stubSubmitter{})

	f.SetReflection(strings.Repeat("é", MaxReflectionLength+50))
	chars, words := f.Counts()
	assert.Equal(t, MaxReflectionLength, chars)
	assert.Equal(t, 1, words)

	f.SetReflection("  a quiet  walk\nby the lake ")
	chars, words = f.Counts()
	assert.Equal(t, 28, chars)
	assert.Equal(t, 6, words)
}

func TestSubmitSuccessClearsFieldsAndDismissesToast(t *testing.T) {
	sub := &stubSubmitter{}
	timer := &manualTimer{}
	f := New(sub, WithAfterFunc(timer.afterFunc))
	filled(f)
	f.SetTitle("Morning")
	require.NoError(t, f.AttachFile(&File{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("x")}))

	rec, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "Morning", sub.last.Title)
	require.NotNil(t, sub.last.File)

	assert.Equal(t, StateSucceeded, f.State())
	assert.True(t, f.ToastVisible())
	assert.Equal(t, Request{}, f.Values())
	assert.Equal(t, ToastDuration, timer.d)

	timer.fire(0)
	assert.False(t, f.ToastVisible())
	assert.Equal(t, StateIdle, f.State())
}

func TestStaleToastTimerIsIgnored(t *testing.T) {
	timer := &manualTimer{}
	f := New(&stubSubmitter{}, WithAfterFunc(timer.afterFunc))

	filled(f)
	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	filled(f)
	_, err = f.Submit(context.Background())
	require.NoError(t, err)

	timer.fire(0)
	assert.True(t, f.ToastVisible())
	timer.fire(1)
	assert.False(t, f.ToastVisible())
}

func TestSubmitFailureRetainsFields(t *testing.T) {
	sub := &stubSubmitter{err: &ServerError{Status: 500, Message: "Failed to upload photo", Details: "Invalid API key"}}
	f := New(sub, WithAfterFunc((&manualTimer{}).afterFunc))
	filled(f)

	_, err := f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, f.State())
	assert.Equal(t, "Failed to upload photo: Invalid API key", f.LastError().Error())
	assert.Equal(t, "a@b.com", f.Values().Email)
	assert.Equal(t, "Hello", f.Values().Reflection)
	assert.False(t, f.ToastVisible())

	// Retry goes through once the server recovers.
	sub.err = nil
	_, err = f.Submit(context.Background())
	assert.NoError(t, err)
}

func TestSubmitOneInFlight(t *testing.T) {
	sub := &stubSubmitter{started: make(chan struct{}), release: make(chan struct{})}
	f := New(sub, WithAfterFunc((&manualTimer{}).afterFunc))
	filled(f)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-sub.started
	assert.Equal(t, StateSubmitting, f.State())

	_, err := f.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrSubmitInFlight))

	close(sub.release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, sub.calls.Load())
}
