package builtin

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ISOTimestampFormat = "2006-01-02T15:04:05.000Z"
	DateFormat         = "2006-01-02"
	TimeFormat         = "15:04:05"
	DateTimeFormat     = "2006-01-02 15:04:05"

	// RandomIntMax is the exclusive upper bound of $randomInt.
	RandomIntMax = 1000
)

// Func produces the value of one system variable occurrence.
type Func func(now time.Time) string

type Registry struct {
	funcs map[string]Func
	now   func() time.Time
}

type Option func(*Registry)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		now:   time.Now,
	}
	r.registerDefaults()
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) registerDefaults() {
	r.Register("guid", funcGUID)
	r.Register("timestamp", funcTimestamp)
	r.Register("isoTimestamp", funcISOTimestamp)
	r.Register("randomInt", funcRandomInt)
	r.Register("date", funcDate)
	r.Register("time", funcTime)
	r.Register("dateTime", funcDateTime)
}

// Register adds or replaces a system variable. The name is stored lower-cased
// and without a leading $.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[normalize(name)] = fn
}

// Lookup evaluates the system variable called name ("$guid" or "guid").
func (r *Registry) Lookup(name string) (string, bool) {
	fn, ok := r.funcs[normalize(name)]
	if !ok {
		return "", false
	}
	return fn(r.now()), true
}

// Names returns the registered names, sorted, each prefixed with $.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, "$"+name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "$")
	return strings.ToLower(name)
}

func funcGUID(_ time.Time) string {
	return uuid.New().String()
}

func funcTimestamp(now time.Time) string {
	return strconv.FormatInt(now.UTC().Unix(), 10)
}

func funcISOTimestamp(now time.Time) string {
	return now.UTC().Format(ISOTimestampFormat)
}

func funcRandomInt(_ time.Time) string {
	return strconv.Itoa(rand.Intn(RandomIntMax))
}

func funcDate(now time.Time) string {
	return now.Local().Format(DateFormat)
}

func funcTime(now time.Time) string {
	return now.Local().Format(TimeFormat)
}

func funcDateTime(now time.Time) string {
	return now.Local().Format(DateTimeFormat)
}
