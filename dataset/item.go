// Package dataset holds the in-memory side of the flexmesh format: item
// descriptors, the time axis and the Dataset container of per-item
// time-by-element arrays.
package dataset

import (
	"fmt"

	"github.com/coastalkit/flexmesh/errs"
	"github.com/coastalkit/flexmesh/format"
)

// ItemInfo describes one named time-varying data channel.
type ItemInfo struct {
	Name string
	Unit string
	// ValueType distinguishes instantaneous samples from values accumulated
	// over the time step.
	ValueType format.ValueType
}

// NewItemInfo creates an instantaneous item with an undefined unit.
func NewItemInfo(name string) ItemInfo {
	return ItemInfo{
		Name:      name,
		Unit:      "undefined",
		ValueType: format.ValueInstantaneous,
	}
}

// ItemSelector picks one item by position or by exact name. The zero value is
// invalid; use ItemIndex or ItemName.
type ItemSelector struct {
	kind  itemSelKind
	index int
	name  string
}

type itemSelKind uint8

const (
	itemByIndex itemSelKind = iota + 1
	itemByName
)

// ItemIndex selects the item at the given 0-based catalog position.
func ItemIndex(i int) ItemSelector {
	return ItemSelector{kind: itemByIndex, index: i}
}

// ItemName selects the item whose name matches exactly.
func ItemName(name string) ItemSelector {
	return ItemSelector{kind: itemByName, name: name}
}

// ResolveItems resolves selectors against a catalog into a concrete ordered
// list of 0-based indices. A nil or empty selector list selects every item in
// catalog order. Name resolution requires an exact match.
func ResolveItems(items []ItemInfo, sels []ItemSelector) ([]int, error) {
	if len(sels) == 0 {
		idx := make([]int, len(items))
		for i := range idx {
			idx[i] = i
		}

		return idx, nil
	}

	idx := make([]int, len(sels))
	for i, sel := range sels {
		switch sel.kind {
		case itemByIndex:
			if sel.index < 0 || sel.index >= len(items) {
				return nil, fmt.Errorf("%w: item index %d outside [0, %d)",
					errs.ErrIndexOutOfRange, sel.index, len(items))
			}
			idx[i] = sel.index
		case itemByName:
			pos := -1
			for j := range items {
				if items[j].Name == sel.name {
					pos = j
					break
				}
			}
			if pos < 0 {
				return nil, fmt.Errorf("%w: %q", errs.ErrUnknownItem, sel.name)
			}
			idx[i] = pos
		default:
			return nil, fmt.Errorf("%w: empty item selector", errs.ErrUnknownItem)
		}
	}

	return idx, nil
}
