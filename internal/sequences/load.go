package sequences

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDefinition reads a single sequence definition from disk.
func LoadDefinition(path string) (*Definition, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("definition path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}

	def, err := parseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("parse definition %s: %w", path, err)
	}
	def.Source = path
	return def, nil
}

// LoadDefinitionsFromDir loads all sequence definitions from a directory.
func LoadDefinitionsFromDir(dir string) ([]*Definition, error) {
	if strings.TrimSpace(dir) == "" {
		return []*Definition{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Definition{}, nil
		}
		return nil, fmt.Errorf("read definitions dir %s: %w", dir, err)
	}

	definitions := make([]*Definition, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, name)
		def, err := LoadDefinition(path)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, def)
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Name < definitions[j].Name
	})

	return definitions, nil
}

func parseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}

	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return nil, fmt.Errorf("definition name is required")
	}

	def.ID = strings.TrimSpace(def.ID)
	if def.ID == "" {
		def.ID = slugify(def.Name)
	}

	trigger, err := normalizeTrigger(string(def.Trigger))
	if err != nil {
		return nil, err
	}
	def.Trigger = trigger

	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("definition steps are required")
	}

	for i := range def.Steps {
		if err := normalizeStep(&def.Steps[i]); err != nil {
			return nil, fmt.Errorf("definition step %d: %w", i+1, err)
		}
	}

	return &def, nil
}

// normalizeTrigger accepts the display spellings used by the CRM's
// marketing store ("Lead Capture") as well as the canonical slugs.
func normalizeTrigger(raw string) (TriggerType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")

	switch TriggerType(normalized) {
	case TriggerLeadCapture, TriggerAppointmentScheduled, TriggerPropertyViewed,
		TriggerBuyerLead, TriggerSellerLead:
		return TriggerType(normalized), nil
	default:
		return "", fmt.Errorf("unknown trigger type %q", raw)
	}
}

func normalizeStep(step *Step) error {
	stepType := strings.ToLower(strings.TrimSpace(string(step.Type)))
	step.Type = StepType(stepType)

	step.Subject = strings.TrimSpace(step.Subject)
	step.Body = strings.TrimSpace(step.Body)

	switch step.Type {
	case StepTypeEmail, StepTypeAIEmail, StepTypeTask, StepTypeMeeting, StepTypeSMS:
	default:
		return fmt.Errorf("unknown step type %q", step.Type)
	}

	if step.Body == "" {
		return fmt.Errorf("step body is required")
	}

	if step.Delay.Value < 0 {
		return fmt.Errorf("step delay must not be negative")
	}
	if step.Delay.Unit == "" {
		step.Delay.Unit = DelayUnitMinutes
	}
	switch step.Delay.Unit {
	case DelayUnitMinutes, DelayUnitHours, DelayUnitDays:
	default:
		return fmt.Errorf("unknown delay unit %q", step.Delay.Unit)
	}

	return nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
