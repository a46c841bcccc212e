package store

import (
	"sort"
	"strconv"
	"strings"
)

// BaseFingerprint summarizes a room as "label-DDDDDD", the six digits being
// the door labels in door order with "?" for unobserved doors. Rooms with
// equal complete base fingerprints are observationally identical at depth
// one and need an identity probe to separate.
func (r *Room) BaseFingerprint() string {
	var b strings.Builder
	b.WriteByte(byte('0' + r.Label))
	b.WriteByte('-')
	for _, l := range r.doorLabels {
		if l == unknown {
			b.WriteByte('?')
		} else {
			b.WriteByte(byte('0' + l))
		}
	}
	return b.String()
}

// Fingerprint is the base fingerprint extended with the disambiguation ID
// once one is assigned. Distinct physical rooms always end with distinct
// fingerprints.
func (r *Room) Fingerprint() string {
	base := r.BaseFingerprint()
	if r.Disambig == unknown {
		return base
	}
	return base + "-" + strconv.Itoa(r.Disambig)
}

// GroupByFingerprint buckets the complete canonical rooms by base
// fingerprint. Buckets of size one need no disambiguation.
func (s *Store) GroupByFingerprint() map[string][]*Room {
	groups := make(map[string][]*Room)
	for _, r := range s.CompleteRooms() {
		key := r.BaseFingerprint()
		groups[key] = append(groups[key], r)
	}
	return groups
}

// AbsoluteIDs assigns each complete canonical room its index in the final
// document: rooms ranked by full fingerprint. The ranking is deterministic,
// so repeated assembly over the same store yields the same numbering.
func (s *Store) AbsoluteIDs() map[RoomID]int {
	rooms := s.CompleteRooms()
	sort.Slice(rooms, func(i, j int) bool {
		fi, fj := rooms[i].Fingerprint(), rooms[j].Fingerprint()
		if fi != fj {
			return fi < fj
		}
		return rooms[i].ID < rooms[j].ID
	})
	out := make(map[RoomID]int, len(rooms))
	for i, r := range rooms {
		out[r.ID] = i
	}
	return out
}

// NextDisambig returns the smallest disambiguation ID not yet used by any
// room in the group.
func NextDisambig(group []*Room) int {
	used := make(map[int]bool)
	for _, r := range group {
		if r.Disambig != unknown {
			used[r.Disambig] = true
		}
	}
	for i := 0; ; i++ {
		if !used[i] {
			return i
		}
	}
}
