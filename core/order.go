package core

import "pkt.systems/tabstrip/schema"

// cyclicIndex steps from current by offset with wraparound. The modulo is
// Euclidean, so negative offsets of any magnitude land in [0, length).
func cyclicIndex(current, offset, length int) int {
	if length <= 0 {
		return -1
	}
	return ((current+offset)%length + length) % length
}

// replacementIndex picks the index of the tab that takes focus after the
// active tab at removed was dropped from an order now holding length tabs.
// The tab that shifted into the vacated slot wins, then the new last tab.
func replacementIndex(removed, length int) int {
	if length <= 0 {
		return -1
	}
	if removed < length {
		return removed
	}
	return length - 1
}

func clampIndex(index, length int) int {
	if index < 0 {
		return 0
	}
	if index > length {
		return length
	}
	return index
}

func indexOf(order []schema.SessionID, id schema.SessionID) int {
	for i, current := range order {
		if current == id {
			return i
		}
	}
	return -1
}

func insertAt(order []schema.SessionID, index int, id schema.SessionID) []schema.SessionID {
	order = append(order, "")
	copy(order[index+1:], order[index:])
	order[index] = id
	return order
}

func removeAt(order []schema.SessionID, index int) []schema.SessionID {
	return append(order[:index], order[index+1:]...)
}

// moveTo relocates the entry at from to to, preserving the relative order of
// every other entry.
func moveTo(order []schema.SessionID, from, to int) []schema.SessionID {
	if from == to {
		return order
	}
	id := order[from]
	order = removeAt(order, from)
	return insertAt(order, to, id)
}
