package browser

import "fmt"

// scrollInfoScript measures how far the body extends below the visible area.
const scrollInfoScript = `(() => {
	const body = document.body;
	const scrollHeight = body.scrollHeight;
	const clientHeight = body.clientHeight;
	return {
		scrollable: scrollHeight > clientHeight,
		scrollAmount: scrollHeight - clientHeight,
		viewportHeight: window.innerHeight
	};
})()`

// ScrollInfo describes the scrollable extent of the current page.
type ScrollInfo struct {
	Scrollable     bool `json:"scrollable"`
	AmountPx       int  `json:"scrollAmount"`
	ViewportHeight int  `json:"viewportHeight"`
	// NTimesViewport is AmountPx in whole viewport heights.
	NTimesViewport int `json:"-"`
}

func (s *ScrollInfo) computeViewports() {
	if s.ViewportHeight <= 0 {
		s.NTimesViewport = 0
		return
	}
	n := s.AmountPx / s.ViewportHeight
	if s.AmountPx%s.ViewportHeight != 0 && s.AmountPx < 0 {
		n--
	}
	s.NTimesViewport = n
}

// Describe returns the "Website view" paragraph appended to the page
// description handed to the actor.
func (s ScrollInfo) Describe() string {
	return fmt.Sprintf("\n\nWebsite view:\nThe screenshot of the website does not show the full website. "+
		"More information might be contained on the webpage when you scroll down or scroll up. "+
		"You can scroll down by %d pixels.", s.AmountPx)
}
