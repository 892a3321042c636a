package actiongate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viant/toolbox"

	"github.com/viant/actiongate/internal/clock"
	"github.com/viant/actiongate/internal/env"
	"github.com/viant/actiongate/internal/yml"
	"github.com/viant/actiongate/model/action"
)

// DecodeActions decodes an action plan:
//
//	actions:
//	  - actionType: SendEmail
//	    contactId: 5f0c1f4e-...
//	    executeIn: 10m            # or executeAt: 2024-05-20T09:00:00Z
//	    priority: high
//	    parameters: {subject: Showing tomorrow}
//	    relevanceCriteria: {dealStatus: Active}
//
// Relative executeIn durations are resolved against now and ${env.NAME}
// references are expanded before parsing.
func DecodeActions(data []byte, now time.Time) ([]*action.ScheduledAction, error) {
	root, err := yml.Parse([]byte(env.Expand(string(data))))
	if err != nil {
		return nil, fmt.Errorf("failed to decode action plan: %w", err)
	}
	items := root.Lookup("actions")
	if items == nil {
		return nil, fmt.Errorf("action plan has no actions")
	}
	var ret []*action.ScheduledAction
	err = items.Items(func(index int, node *yml.Node) error {
		anAction, err := decodeAction(node, now)
		if err != nil {
			return fmt.Errorf("actions[%d]: %w", index, err)
		}
		ret = append(ret, anAction)
		return nil
	})
	return ret, err
}

func decodeAction(node *yml.Node, now time.Time) (*action.ScheduledAction, error) {
	ret := &action.ScheduledAction{}
	err := node.Pairs(func(key string, value *yml.Node) error {
		switch strings.ToLower(key) {
		case "id":
			ret.ID = value.Text()
		case "actiontype":
			ret.ActionType = value.Text()
		case "description":
			ret.Description = value.Text()
		case "contactid":
			ret.ContactID = value.Text()
		case "organizationid":
			ret.OrganizationID = value.Text()
		case "agentid":
			ret.AgentID = value.Text()
		case "priority":
			priority, err := action.ParsePriority(value.Interface())
			if err != nil {
				return err
			}
			ret.Priority = priority
		case "executein":
			delay, err := time.ParseDuration(value.Text())
			if err != nil {
				return fmt.Errorf("invalid executeIn %q: %w", value.Text(), err)
			}
			ret.ExecuteAt = now.Add(delay)
		case "executeat":
			at, err := time.Parse(time.RFC3339, value.Text())
			if err != nil {
				return fmt.Errorf("invalid executeAt %q: %w", value.Text(), err)
			}
			ret.ExecuteAt = at
		case "maxretryattempts":
			ret.MaxRetryAttempts = toolbox.AsInt(value.Interface())
		case "parameters":
			ret.Parameters = value.Map()
		case "relevancecriteria":
			ret.RelevanceCriteria = value.Map()
		default:
			return fmt.Errorf("unknown field %q at line %d", key, value.Line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ret.ActionType == "" {
		return nil, fmt.Errorf("actionType is required")
	}
	return ret, nil
}

// LoadActions reads an action plan from URL and schedules every action. It
// stops at the first action that cannot be scheduled and returns the ones
// scheduled so far.
func (s *Service) LoadActions(ctx context.Context, URL string) ([]*action.ScheduledAction, error) {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load action plan %v: %w", URL, err)
	}
	actions, err := DecodeActions(data, clock.Now())
	if err != nil {
		return nil, err
	}
	ret := make([]*action.ScheduledAction, 0, len(actions))
	for _, anAction := range actions {
		scheduled, err := s.ScheduleAction(ctx, anAction)
		if err != nil {
			return ret, err
		}
		ret = append(ret, scheduled)
	}
	s.logger.InfoContext(ctx, "action plan loaded", "URL", URL, "count", len(ret))
	return ret, nil
}
