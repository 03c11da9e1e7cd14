package session

import "sync"

// GroupTable maps a resume id to the set of connection ids currently viewing
// it. It holds non-owning references into the Registry; the dispatcher
// re-validates liveness against the Registry before every delivery.
type GroupTable struct {
	mu     sync.RWMutex
	groups map[string]map[string]struct{}
}

func NewGroupTable() *GroupTable {
	return &GroupTable{groups: make(map[string]map[string]struct{})}
}

// Join adds a connection to a group, creating the group on first join, and
// reports whether membership actually changed. A repeated join is a no-op.
func (g *GroupTable) Join(resumeID, connID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	members, ok := g.groups[resumeID]
	if !ok {
		members = make(map[string]struct{})
		g.groups[resumeID] = members
	}
	if _, ok := members[connID]; ok {
		return false
	}
	members[connID] = struct{}{}
	return true
}

// Leave removes a connection from a group and reports whether it was a
// member. Empty groups are dropped so join is the only thing that creates them.
func (g *GroupTable) Leave(resumeID, connID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	members, ok := g.groups[resumeID]
	if !ok {
		return false
	}
	if _, ok := members[connID]; !ok {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(g.groups, resumeID)
	}
	return true
}

// MembersOf returns a copy of the group's member set. Internal use only;
// connection ids are never exposed to clients.
func (g *GroupTable) MembersOf(resumeID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	members := g.groups[resumeID]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// RemoveEverywhere purges a connection from every group it joined and reports
// which groups it was removed from. Called once per connection, on disconnect.
func (g *GroupTable) RemoveEverywhere(connID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var removed []string
	for resumeID, members := range g.groups {
		if _, ok := members[connID]; !ok {
			continue
		}
		delete(members, connID)
		removed = append(removed, resumeID)
		if len(members) == 0 {
			delete(g.groups, resumeID)
		}
	}
	return removed
}
