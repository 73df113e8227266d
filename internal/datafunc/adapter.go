package datafunc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agrigate/agrigate/internal/warehouse"
)

// ClientFactory resolves a warehouse client per invocation. Credential and
// configuration problems surface here, as ConfigurationError or
// AuthenticationError, so they reach hosts as error tables instead of
// failing service startup.
type ClientFactory func(ctx context.Context) (warehouse.Client, error)

type Stats struct {
	Duration time.Duration
	Rows     int
}

type ErrorRecord struct {
	Kind    Kind
	Label   string
	Details string
}

// Outcome is the single result of an invocation: either Table is populated
// and Error is nil, or Error is set and Table is empty. Never both.
type Outcome struct {
	Table warehouse.Table
	Error *ErrorRecord
	Stats Stats
}

func (o Outcome) Failed() bool {
	return o.Error != nil
}

// Status returns "ok" for successful invocations and the error kind
// otherwise. Used as the metrics outcome label and the history row status.
func (o Outcome) Status() string {
	if o.Error != nil {
		return string(o.Error.Kind)
	}
	return "ok"
}

// HostTable returns the table handed back to the host: the result table on
// success, the one-row {Error, Details} table on failure.
func (o Outcome) HostTable() warehouse.Table {
	if o.Error != nil {
		return warehouse.ErrorTable(o.Error.Label, o.Error.Details)
	}
	return o.Table
}

type Adapter struct {
	Target  warehouse.TableRef
	Factory ClientFactory
	Logger  *slog.Logger
	Clock   func() time.Time
}

// Run executes one invocation end to end. It never returns an error and
// never panics: every failure, recovered panics included, becomes an
// Outcome carrying an ErrorRecord.
func (a *Adapter) Run(ctx context.Context, inputs Inputs) Outcome {
	a.ensureDefaults()

	start := a.Clock()
	outcome := a.invoke(ctx, inputs)
	outcome.Stats.Duration = a.Clock().Sub(start)

	observeInvocation(outcome.Status(), outcome.Stats.Rows, outcome.Stats.Duration)
	a.report(inputs, outcome)
	return outcome
}

func (a *Adapter) invoke(ctx context.Context, inputs Inputs) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = failureOutcome(fmt.Errorf("panic during invocation: %v", r))
		}
	}()

	filter, err := ValidateInputs(inputs)
	if err != nil {
		return failureOutcome(err)
	}

	if err := a.Target.Validate(); err != nil {
		return failureOutcome(&ConfigurationError{Detail: fmt.Sprintf("invalid warehouse target %q: %v", a.Target, err)})
	}
	if a.Factory == nil {
		return failureOutcome(&ConfigurationError{Detail: "no warehouse client factory configured"})
	}

	client, err := a.Factory(ctx)
	if err != nil {
		return failureOutcome(err)
	}
	defer func() { _ = client.Close() }()

	result, err := client.Execute(ctx, warehouse.Request{Target: a.Target, Filter: filter})
	if err != nil {
		var remote *RemoteQueryError
		if !errors.As(err, &remote) {
			err = &RemoteQueryError{Err: err}
		}
		return failureOutcome(err)
	}

	return Outcome{
		Table: result.Table,
		Stats: Stats{Rows: result.Table.RowCount()},
	}
}

func (a *Adapter) report(inputs Inputs, outcome Outcome) {
	logger := a.Logger.With(
		slog.String("crop", inputs.Crop),
		slog.String("region", inputs.Region),
		slog.String("start_date", inputs.StartDate),
		slog.String("end_date", inputs.EndDate),
		slog.Int64("duration_ms", outcome.Stats.Duration.Milliseconds()),
	)
	if outcome.Failed() {
		logger.Warn("data function invocation failed",
			slog.String("error_kind", string(outcome.Error.Kind)),
			slog.String("error_details", outcome.Error.Details),
		)
		return
	}
	logger.Info("data function invocation completed",
		slog.Int("rows", outcome.Stats.Rows),
	)
}

func (a *Adapter) ensureDefaults() {
	if a.Clock == nil {
		a.Clock = time.Now
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
}

func failureOutcome(err error) Outcome {
	kind, details := Classify(err)
	return Outcome{Error: &ErrorRecord{Kind: kind, Label: kind.Label(), Details: details}}
}
