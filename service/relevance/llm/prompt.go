package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/contact"
	"github.com/viant/actiongate/model/relevance"
	"gopkg.in/yaml.v3"
)

// actionView is the subset of an action exposed to the model.
type actionView struct {
	ID                string                 `yaml:"id"`
	Type              string                 `yaml:"type"`
	Description       string                 `yaml:"description,omitempty"`
	Priority          string                 `yaml:"priority"`
	ExecuteAt         string                 `yaml:"executeAt"`
	Parameters        map[string]interface{} `yaml:"parameters,omitempty"`
	RelevanceCriteria map[string]interface{} `yaml:"relevanceCriteria,omitempty"`
}

func viewOf(anAction *action.ScheduledAction) *actionView {
	return &actionView{
		ID:                anAction.ID,
		Type:              anAction.ActionType,
		Description:       anAction.Description,
		Priority:          anAction.Priority.String(),
		ExecuteAt:         anAction.ExecuteAt.UTC().Format(time.RFC3339),
		Parameters:        anAction.Parameters,
		RelevanceCriteria: anAction.RelevanceCriteria,
	}
}

func section(b *strings.Builder, title string, value interface{}) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", strings.ToLower(title), err)
	}
	b.WriteString("## ")
	b.WriteString(title)
	b.WriteString("\n")
	b.Write(data)
	b.WriteString("\n")
	return nil
}

// validationPrompt embeds the action, the contact context and the user
// override preferences.
func validationPrompt(anAction *action.ScheduledAction, subject *contact.Context, overrides map[string]interface{}) (string, error) {
	b := &strings.Builder{}
	b.WriteString("Decide whether the scheduled action below is still relevant given the current contact context.\n\n")
	if err := section(b, "Action", viewOf(anAction)); err != nil {
		return "", err
	}
	if err := section(b, "Contact context", subject.Snapshot()); err != nil {
		return "", err
	}
	if len(overrides) > 0 {
		if err := section(b, "User preferences", overrides); err != nil {
			return "", err
		}
	}
	b.WriteString("Respond with the JSON verdict only.")
	return b.String(), nil
}

// approvalPrompt asks whether an already validated action needs sign-off.
func approvalPrompt(anAction *action.ScheduledAction, result *relevance.Result, userID string) (string, error) {
	b := &strings.Builder{}
	b.WriteString("Decide whether a human must approve the action below before it is executed automatically.\n\n")
	if err := section(b, "Action", viewOf(anAction)); err != nil {
		return "", err
	}
	verdict := map[string]interface{}{
		"isRelevant":      result.IsRelevant,
		"confidenceScore": result.ConfidenceScore,
		"reason":          result.Reason,
		"method":          string(result.ValidationMethod),
	}
	if err := section(b, "Relevance verdict", verdict); err != nil {
		return "", err
	}
	fmt.Fprintf(b, "Requesting user: %s\n", userID)
	b.WriteString("Respond with the JSON answer only.")
	return b.String(), nil
}
