// Package fields configures the option deriver for each climate metadata
// field and links sibling selectors into a constraint chain.
package fields

import (
	"fmt"
	"log/slog"
	"strings"

	"metaselect/internal/options"
)

const (
	Model      = "model"
	Emissions  = "emissions"
	Variable   = "variable"
	TimePeriod = "time_period"
	Dataset    = "dataset"
)

var (
	variableKeys   = []string{"variable_id", "variable_name", "multi_year_mean"}
	timePeriodKeys = []string{"start_date", "end_date"}
	datasetKeys    = []string{"start_date", "end_date", "ensemble_member"}
)

// Pick copies the listed keys that are present in r.
func Pick(r options.Record, keys ...string) options.Record {
	out := make(options.Record, len(keys))
	for _, k := range keys {
		if v, ok := r[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Union merges constraints left to right; later fields win.
func Union(cs ...options.Constraint) options.Constraint {
	out := options.Constraint{}
	for _, c := range cs {
		for k, v := range c {
			out[k] = v
		}
	}
	return out
}

func stringField(name string) func(options.Record) string {
	return func(r options.Record) string {
		if v, ok := r[name]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}
}

func singleKey(name string) func(options.Selection[string]) options.Constraint {
	return func(s options.Selection[string]) options.Constraint {
		if v, ok := s.Value(); ok {
			return options.Constraint{name: v}
		}
		return nil
	}
}

func wholeRecord(s options.Selection[options.Record]) options.Constraint {
	if v, ok := s.Value(); ok {
		return options.Constraint(v)
	}
	return nil
}

// NewModel builds the model selector: one option per model_id.
func NewModel(logger *slog.Logger) *Field[string] {
	return newField(Model, "Model", options.Config[string]{
		ValueOf: stringField("model_id"),
	}, singleKey("model_id"), logger)
}

// NewEmissions builds the emissions scenario selector.
func NewEmissions(logger *slog.Logger) *Field[string] {
	return newField(Emissions, "Emissions Scenario", options.Config[string]{
		ValueOf: stringField("experiment"),
	}, singleKey("experiment"), logger)
}

// NewVariable builds the variable selector, grouped into multi-year mean and
// time series datasets.
func NewVariable(logger *slog.Logger) *Field[options.Record] {
	return newField(Variable, "Variable", options.Config[options.Record]{
		ValueOf: func(r options.Record) options.Record { return Pick(r, variableKeys...) },
		LabelOf: func(g options.Group[options.Record], _ []options.Record) string {
			return fmt.Sprintf("%v - %v", g.Value["variable_id"], g.Value["variable_name"])
		},
		Arrange: options.Partition(
			options.PartitionSpec[options.Record]{Label: "Multi-Year Mean Datasets", Include: isMultiYearMean},
			options.PartitionSpec[options.Record]{Label: "Time Series Datasets", Include: func(o options.Option[options.Record]) bool {
				return !isMultiYearMean(o)
			}},
		),
	}, wholeRecord, logger)
}

func isMultiYearMean(o options.Option[options.Record]) bool {
	return truthy(o.Value["multi_year_mean"])
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0" && !strings.EqualFold(t, "false")
	}
	return false
}

// NewTimePeriod builds the time period selector.
func NewTimePeriod(logger *slog.Logger) *Field[options.Record] {
	return newField(TimePeriod, "Time Period", options.Config[options.Record]{
		ValueOf: func(r options.Record) options.Record { return Pick(r, timePeriodKeys...) },
		LabelOf: func(g options.Group[options.Record], _ []options.Record) string {
			return fmt.Sprintf("%v-%v", g.Value["start_date"], g.Value["end_date"])
		},
	}, wholeRecord, logger)
}

// NewDataset builds the dataset selector. Ensemble members are shown as
// "Run n", numbered by first appearance across every record the selector is
// given.
func NewDataset(logger *slog.Logger) *Field[options.Record] {
	return newField(Dataset, "Dataset", options.Config[options.Record]{
		ValueOf:  func(r options.Record) options.Record { return Pick(r, datasetKeys...) },
		LabelSet: datasetLabels,
	}, wholeRecord, logger)
}

func datasetLabels(all []options.Record) func(options.Group[options.Record]) string {
	runs := EnsembleRuns(all)
	start, end, member := stringField("start_date"), stringField("end_date"), stringField("ensemble_member")
	return func(g options.Group[options.Record]) string {
		period := fmt.Sprintf("%s–%s", start(g.Value), end(g.Value))
		m := member(g.Value)
		if m == "" {
			return period
		}
		return fmt.Sprintf("%s (%s), %s", runs[m], m, period)
	}
}

// EnsembleRuns maps each distinct ensemble_member to "Run n" in first-seen
// order. Records without a member are not numbered.
func EnsembleRuns(records []options.Record) map[string]string {
	member := stringField("ensemble_member")
	out := make(map[string]string)
	for _, r := range records {
		m := member(r)
		if m == "" {
			continue
		}
		if _, ok := out[m]; !ok {
			out[m] = fmt.Sprintf("Run %d", len(out)+1)
		}
	}
	return out
}
