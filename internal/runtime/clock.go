package runtime

import "time"

// Clock supplies the unix time, in seconds, a transaction executes at.
type Clock interface {
	Now() int64
}

type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// FixedClock always reports the same time.
type FixedClock int64

func (c FixedClock) Now() int64 {
	return int64(c)
}
