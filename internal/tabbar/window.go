package tabbar

// tabWindow is the visible slice [start, end) of the tab strip.
type tabWindow struct {
	start       int
	end         int
	leftHidden  bool
	rightHidden bool
}

// fitWindow picks the visible tabs for a strip of width cells. The previous
// window start is kept while the active tab stays visible, so the strip does
// not jump on every selection change.
func fitWindow(widths []int, active, start, width int) tabWindow {
	n := len(widths)
	if n == 0 {
		return tabWindow{}
	}
	total := 0
	for _, w := range widths {
		total += w
	}
	if total <= width {
		return tabWindow{start: 0, end: n}
	}
	active = clamp(active, 0, n-1)
	window := windowFrom(widths, clamp(start, 0, n-1), width)
	switch {
	case active < window.start:
		window = windowFrom(widths, active, width)
	case active >= window.end:
		window = windowEndingAt(widths, active+1, width)
	}
	return window
}

// windowFrom fits as many tabs as possible starting at start. Indicator cells
// for hidden tabs are reserved before fitting settles.
func windowFrom(widths []int, start, width int) tabWindow {
	n := len(widths)
	w := tabWindow{start: start, leftHidden: start > 0}
	for i := 0; i < 3; i++ {
		w.end = fitForward(widths, start, available(width, w))
		w.rightHidden = w.end < n
	}
	return w
}

// windowEndingAt fits as many tabs as possible ending just before end.
func windowEndingAt(widths []int, end, width int) tabWindow {
	n := len(widths)
	w := tabWindow{end: end, rightHidden: end < n}
	for i := 0; i < 3; i++ {
		w.start = fitBackward(widths, end, available(width, w))
		w.leftHidden = w.start > 0
	}
	return w
}

func available(width int, w tabWindow) int {
	if w.leftHidden {
		width--
	}
	if w.rightHidden {
		width--
	}
	if width < 1 {
		width = 1
	}
	return width
}

// fitForward returns the end index of the widest run from start within avail.
// At least one tab is always included.
func fitForward(widths []int, start, avail int) int {
	sum := 0
	end := start
	for i := start; i < len(widths); i++ {
		if sum+widths[i] > avail {
			break
		}
		sum += widths[i]
		end = i + 1
	}
	if end == start {
		end = start + 1
	}
	return end
}

// fitBackward returns the start index of the widest run ending before end
// within avail. At least one tab is always included.
func fitBackward(widths []int, end, avail int) int {
	sum := 0
	start := end
	for i := end - 1; i >= 0; i-- {
		if sum+widths[i] > avail {
			break
		}
		sum += widths[i]
		start = i
	}
	if start == end {
		start = end - 1
	}
	return start
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
