package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyAnswer is returned when the model produced no text.
var ErrEmptyAnswer = errors.New("llm: empty answer")

// ErrInvalidVerdict is returned when the answer is not a valid verdict.
var ErrInvalidVerdict = errors.New("llm: invalid verdict")

type verdict struct {
	IsRelevant         *bool    `json:"isRelevant"`
	ConfidenceScore    *float64 `json:"confidenceScore"`
	Reason             string   `json:"reason"`
	RecommendedAction  string   `json:"recommendedAction"`
	AlternativeActions []string `json:"alternativeActions"`
}

type approvalAdvice struct {
	RequiresApproval *bool  `json:"requiresApproval"`
	Reason           string `json:"reason"`
}

// extractJSON strips surrounding prose and markdown fences, returning the
// outermost JSON object.
func extractJSON(answer string) (string, error) {
	text := strings.TrimSpace(answer)
	if text == "" {
		return "", ErrEmptyAnswer
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object found", ErrInvalidVerdict)
	}
	return text[start : end+1], nil
}

func parseVerdict(answer string) (*verdict, error) {
	payload, err := extractJSON(answer)
	if err != nil {
		return nil, err
	}
	ret := &verdict{}
	if err = json.Unmarshal([]byte(payload), ret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerdict, err)
	}
	if ret.IsRelevant == nil {
		return nil, fmt.Errorf("%w: missing isRelevant", ErrInvalidVerdict)
	}
	if ret.ConfidenceScore == nil {
		return nil, fmt.Errorf("%w: missing confidenceScore", ErrInvalidVerdict)
	}
	if score := *ret.ConfidenceScore; score < 0 || score > 1 {
		return nil, fmt.Errorf("%w: confidenceScore %v out of range", ErrInvalidVerdict, score)
	}
	return ret, nil
}

func parseApprovalAdvice(answer string) (*approvalAdvice, error) {
	payload, err := extractJSON(answer)
	if err != nil {
		return nil, err
	}
	ret := &approvalAdvice{}
	if err = json.Unmarshal([]byte(payload), ret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVerdict, err)
	}
	if ret.RequiresApproval == nil {
		return nil, fmt.Errorf("%w: missing requiresApproval", ErrInvalidVerdict)
	}
	return ret, nil
}
