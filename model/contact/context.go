package contact

import "time"

// Context is a snapshot of what is currently known about a contact. It is
// fetched fresh right before an action executes so criteria are evaluated
// against live data.
type Context struct {
	ContactID           string                 `json:"contactId" yaml:"contactId"`
	OrganizationID      string                 `json:"organizationId" yaml:"organizationId"`
	AgentID             string                 `json:"agentId,omitempty" yaml:"agentId,omitempty"`
	DealStatus          string                 `json:"dealStatus,omitempty" yaml:"dealStatus,omitempty"`
	EngagementLevel     string                 `json:"engagementLevel,omitempty" yaml:"engagementLevel,omitempty"`
	LastInteractionDate *time.Time             `json:"lastInteractionDate,omitempty" yaml:"lastInteractionDate,omitempty"`
	IndustryProfile     string                 `json:"industryProfile,omitempty" yaml:"industryProfile,omitempty"`
	Attributes          map[string]interface{} `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Minimal returns the context a provider falls back to when it cannot load
// contact data.
func Minimal(contactID, organizationID, agentID string) *Context {
	return &Context{ContactID: contactID, OrganizationID: organizationID, AgentID: agentID}
}

// Snapshot flattens the context into a map recorded on relevance results.
func (c *Context) Snapshot() map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	ret := map[string]interface{}{
		"contactId":       c.ContactID,
		"organizationId":  c.OrganizationID,
		"dealStatus":      c.DealStatus,
		"engagementLevel": c.EngagementLevel,
	}
	if c.AgentID != "" {
		ret["agentId"] = c.AgentID
	}
	if c.LastInteractionDate != nil {
		ret["lastInteractionDate"] = c.LastInteractionDate.UTC().Format(time.RFC3339)
	}
	if c.IndustryProfile != "" {
		ret["industryProfile"] = c.IndustryProfile
	}
	for k, v := range c.Attributes {
		if _, ok := ret[k]; !ok {
			ret[k] = v
		}
	}
	return ret
}
