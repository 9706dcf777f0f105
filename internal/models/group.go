package models

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// GroupID identifies one tracked URL unit within a content record. User-added
// groups carry generated ids; the http/https split groups use reserved ids.
type GroupID string

// Reserved group ids. These groups are created only by the counts merge step
// when HTTP count preservation is enabled, and can never be deleted or
// disabled through the registry mutation protocol.
const (
	GroupHTTP  GroupID = "http"
	GroupHTTPS GroupID = "https"
)

// Reserved reports whether the id is one of the http/https split groups.
func (id GroupID) Reserved() bool {
	return id == GroupHTTP || id == GroupHTTPS
}

// NewGroupID generates a fresh id for a user-added group. Uniqueness within a
// single record's group set is the only hard requirement.
func NewGroupID() GroupID {
	return GroupID(strings.ReplaceAll(uuid.New().String(), "-", "")[:13])
}

// Group is one tracked URL unit contributing to a content item's total.
// Reserved groups have no stored URL; it is derived from the canonical URL.
type Group struct {
	ID       GroupID        `json:"id"`
	Name     string         `json:"name"`
	URL      string         `json:"url,omitempty"`
	Snapshot *CountSnapshot `json:"counts,omitempty"`
	Total    int            `json:"total"`
	Disabled bool           `json:"disabled,omitempty"`
}

// GroupSet maps group ids to groups. Storage order is irrelevant; display
// order is always computed through Ordered.
type GroupSet map[GroupID]Group

// ParseGroupSet decodes a serialized group set. Empty input yields an empty,
// non-nil set.
func ParseGroupSet(data string) (GroupSet, error) {
	groups := GroupSet{}
	if data == "" {
		return groups, nil
	}
	if err := json.Unmarshal([]byte(data), &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Serialize encodes the set for storage.
func (gs GroupSet) Serialize() (string, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HasReservedPair reports whether both split groups are present with counts.
func (gs GroupSet) HasReservedPair() bool {
	httpGroup, hasHTTP := gs[GroupHTTP]
	httpsGroup, hasHTTPS := gs[GroupHTTPS]
	return hasHTTP && hasHTTPS && !httpGroup.Snapshot.IsZero() && !httpsGroup.Snapshot.IsZero()
}

// Ordered returns the groups in display order: when both reserved groups are
// present and non-empty they come first (https before http), then user groups
// sorted by id for a stable projection.
func (gs GroupSet) Ordered() []Group {
	ordered := make([]Group, 0, len(gs))

	if gs.HasReservedPair() {
		ordered = append(ordered, gs[GroupHTTPS], gs[GroupHTTP])
	}

	userIDs := make([]GroupID, 0, len(gs))
	for id := range gs {
		if !id.Reserved() {
			userIDs = append(userIDs, id)
		}
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	for _, id := range userIDs {
		ordered = append(ordered, gs[id])
	}

	return ordered
}
