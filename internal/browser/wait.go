package browser

import (
	"fmt"
	"strings"
	"time"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// WaitCondition is the page readiness state a navigation waits for.
type WaitCondition string

// Wait conditions.
const (
	WaitLoad             WaitCondition = "load"
	WaitDOMContentLoaded WaitCondition = "domcontentloaded"
	WaitNetworkIdle      WaitCondition = "networkidle"
)

// networkIdleQuiet is how long the network must stay quiet for WaitNetworkIdle.
const networkIdleQuiet = 500 * time.Millisecond

// String returns the string representation of the WaitCondition.
func (w WaitCondition) String() string {
	return string(w)
}

// ParseWaitCondition resolves a wait condition name. Empty selects load.
func ParseWaitCondition(s string) (WaitCondition, error) {
	switch WaitCondition(strings.ToLower(strings.TrimSpace(s))) {
	case "", WaitLoad:
		return WaitLoad, nil
	case WaitDOMContentLoaded:
		return WaitDOMContentLoaded, nil
	case WaitNetworkIdle:
		return WaitNetworkIdle, nil
	default:
		return "", fmt.Errorf("%w: %q (want load, domcontentloaded, or networkidle)", allyerrors.ErrInvalidWaitCondition, s)
	}
}
