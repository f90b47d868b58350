package core

import "sort"

// Group is a named set of display names receiving broadcasts for that name.
type Group struct {
	Name    string
	members map[string]struct{}
}

// NewGroup constructs a group with no members.
func NewGroup(name string) *Group {
	return &Group{
		Name:    name,
		members: make(map[string]struct{}),
	}
}

// AddMember inserts a display name into the group. Returns true if newly added.
func (g *Group) AddMember(name string) bool {
	if _, exists := g.members[name]; exists {
		return false
	}
	g.members[name] = struct{}{}
	return true
}

// RemoveMember deletes a display name from the group. Returns true if removed.
func (g *Group) RemoveMember(name string) bool {
	if _, exists := g.members[name]; !exists {
		return false
	}
	delete(g.members, name)
	return true
}

// HasMember reports whether the display name belongs to the group.
func (g *Group) HasMember(name string) bool {
	_, ok := g.members[name]
	return ok
}

// MemberCount returns the number of members.
func (g *Group) MemberCount() int {
	return len(g.members)
}

// MemberNames returns a sorted snapshot of member display names.
func (g *Group) MemberNames() []string {
	names := make([]string, 0, len(g.members))
	for name := range g.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupInfo is a summary row for group listings.
type GroupInfo struct {
	Name        string
	MemberCount int
}

// Registry is the authoritative store of groups. Groups are created on first
// join and never reclaimed, so an empty group keeps showing up in listings.
// Not safe for concurrent use; the Router serializes all access.
type Registry struct {
	groups map[string]*Group
}

// NewRegistry constructs an empty group registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*Group)}
}

// GetOrCreate returns the named group, creating it with no members if absent.
func (r *Registry) GetOrCreate(name string) *Group {
	if g, ok := r.groups[name]; ok {
		return g
	}
	g := NewGroup(name)
	r.groups[name] = g
	return g
}

// Find returns the named group if it exists.
func (r *Registry) Find(name string) (*Group, bool) {
	g, ok := r.groups[name]
	return g, ok
}

// AddMember adds a display name to a group, creating the group if absent.
// Returns true if the membership was newly added.
func (r *Registry) AddMember(group, member string) bool {
	return r.GetOrCreate(group).AddMember(member)
}

// RemoveMember removes a display name from a group. No-op if the group or
// the membership is absent.
func (r *Registry) RemoveMember(group, member string) bool {
	g, ok := r.groups[group]
	if !ok {
		return false
	}
	return g.RemoveMember(member)
}

// RemoveMemberFromAll scans every group and removes the display name.
// Returns the names of the groups the member was actually removed from.
func (r *Registry) RemoveMemberFromAll(member string) []string {
	var removed []string
	for name, g := range r.groups {
		if g.RemoveMember(member) {
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	return removed
}

// Groups returns summaries of all groups, sorted by name.
func (r *Registry) Groups() []GroupInfo {
	infos := make([]GroupInfo, 0, len(r.groups))
	for _, g := range r.groups {
		infos = append(infos, GroupInfo{Name: g.Name, MemberCount: g.MemberCount()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// MemberNames returns the sorted member list of a group, if it exists.
func (r *Registry) MemberNames(group string) ([]string, bool) {
	g, ok := r.groups[group]
	if !ok {
		return nil, false
	}
	return g.MemberNames(), true
}
