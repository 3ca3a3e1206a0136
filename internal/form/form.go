// Package form holds the client-side submission controller: input limits,
// pre-validation, the honeypot check and the one-in-flight state machine.
//
// It is a UX and cost filter only. The server stays the authoritative validator.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/AnshRaj112/reflections-backend/internal/models"
)

const (
	// MaxReflectionLength is enforced by truncating input, not by blocking.
	MaxReflectionLength = 1200
	// MaxFileSize is the largest attachment the form accepts.
	MaxFileSize = 50 << 20
	// ToastDuration is how long the success confirmation stays visible.
	ToastDuration = 5 * time.Second
	// honeypotTolerance is the longest non-URL decoy value treated as autofill noise.
	honeypotTolerance = 20
)

// State of a Form.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	// StateSucceeded is idle with the confirmation showing.
	StateSucceeded
	// StateFailed is idle with the last error showing; fields are retained.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrSubmitInFlight is returned while another submission is running.
	ErrSubmitInFlight = errors.New("form: a submission is already in flight")
	// ErrSuppressed means the honeypot tripped. Callers must not show it to the user.
	ErrSuppressed = errors.New("form: submission suppressed")
	// ErrFileTooLarge and ErrUnsupportedFile reject an attachment; the selection is cleared.
	ErrFileTooLarge    = errors.New("form: file size must be less than 50MB")
	ErrUnsupportedFile = errors.New("form: please select an image or video file")
)

// MissingFieldsError lists the required inputs that are empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("form: please fill in all required fields: %s", strings.Join(e.Fields, ", "))
}

// File is a selected attachment.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Request is what a Submitter sends.
type Request struct {
	Email        string
	Neighborhood string
	Reflection   string
	Title        string
	File         *File
}

// Submitter delivers a validated request to the server.
type Submitter interface {
	Submit(ctx context.Context, req Request) (*models.Reflection, error)
}

// Option configures a Form.
type Option func(*Form)

// WithAfterFunc replaces time.AfterFunc for the confirmation timer.
func WithAfterFunc(fn func(time.Duration, func()) *time.Timer) Option {
	return func(f *Form) { f.afterFunc = fn }
}

// Form is one form instance. All state is owned by the instance.
type Form struct {
	submitter Submitter
	afterFunc func(time.Duration, func()) *time.Timer

	mu           sync.Mutex
	email        string
	neighborhood string
	reflection   string
	title        string
	honeypot     string
	file         *File
	state        State
	lastErr      error
	toast        bool
	toastTimer   *time.Timer
}

func New(submitter Submitter, opts ...Option) *Form {
	f := &Form{submitter: submitter, afterFunc: time.AfterFunc}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Form) SetEmail(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = v
}

func (f *Form) SetNeighborhood(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.neighborhood = v
}

func (f *Form) SetTitle(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = v
}

// SetHoneypot records the hidden decoy field. Humans never fill it.
func (f *Form) SetHoneypot(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.honeypot = v
}

// SetReflection stores v truncated to MaxReflectionLength characters.
func (f *Form) SetReflection(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reflection = truncate(v, MaxReflectionLength)
}

// AttachFile selects file. A nil file clears the selection. Oversized or
// non image/video files are rejected and clear any previous selection.
func (f *Form) AttachFile(file *File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.file = nil
	if file == nil {
		return nil
	}
	if err := CheckFile(file); err != nil {
		return err
	}
	f.file = file
	return nil
}

// CheckFile applies the attachment size and media type rules.
func CheckFile(file *File) error {
	if len(file.Data) > MaxFileSize {
		return ErrFileTooLarge
	}
	ct := strings.ToLower(file.ContentType)
	if !strings.HasPrefix(ct, "image/") && !strings.HasPrefix(ct, "video/") {
		return ErrUnsupportedFile
	}
	return nil
}

// Counts returns the advisory character and word counters.
func (f *Form) Counts() (chars, words int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return utf8.RuneCountInString(f.reflection), len(strings.Fields(f.reflection))
}

// Values returns the current field values.
func (f *Form) Values() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.request()
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// ToastVisible reports whether the success confirmation is showing.
func (f *Form) ToastVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toast
}

// LastError is the error from the most recent failed submission.
func (f *Form) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Submit validates and sends the form. It returns ErrSuppressed without any
// request when the honeypot trips, a *MissingFieldsError when required inputs
// are empty, and ErrSubmitInFlight while another call is running.
func (f *Form) Submit(ctx context.Context) (*models.Reflection, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if HoneypotTripped(f.honeypot) {
		f.mu.Unlock()
		return nil, ErrSuppressed
	}
	if missing := f.missing(); len(missing) > 0 {
		f.mu.Unlock()
		return nil, &MissingFieldsError{Fields: missing}
	}
	req := f.request()
	f.state = StateSubmitting
	f.lastErr = nil
	f.hideToastLocked()
	f.mu.Unlock()

	rec, err := f.submitter.Submit(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateFailed
		f.lastErr = err
		return nil, err
	}

	f.email, f.neighborhood, f.reflection, f.title = "", "", "", ""
	f.file = nil
	f.state = StateSucceeded
	f.toast = true
	var timer *time.Timer
	timer = f.afterFunc(ToastDuration, func() { f.dismissToast(timer) })
	f.toastTimer = timer
	return rec, nil
}

func (f *Form) dismissToast(timer *time.Timer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toastTimer != timer {
		return
	}
	f.toast = false
	f.toastTimer = nil
	if f.state == StateSucceeded {
		f.state = StateIdle
	}
}

func (f *Form) hideToastLocked() {
	if f.toastTimer != nil {
		f.toastTimer.Stop()
		f.toastTimer = nil
	}
	f.toast = false
}

func (f *Form) missing() []string {
	var out []string
	if strings.TrimSpace(f.email) == "" {
		out = append(out, "email")
	}
	if strings.TrimSpace(f.neighborhood) == "" {
		out = append(out, "neighborhood")
	}
	if strings.TrimSpace(f.reflection) == "" {
		out = append(out, "reflection")
	}
	return out
}

func (f *Form) request() Request {
	return Request{
		Email:        f.email,
		Neighborhood: f.neighborhood,
		Reflection:   f.reflection,
		Title:        f.title,
		File:         f.file,
	}
}

// HoneypotTripped reports whether a decoy value looks automated: URL-shaped
// (scheme, "www." or any dot) or longer than a short autofill artifact.
func HoneypotTripped(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "www.") || strings.Contains(v, ".") {
		return true
	}
	return utf8.RuneCountInString(v) > honeypotTolerance
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
