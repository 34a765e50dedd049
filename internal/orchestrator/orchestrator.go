// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package orchestrator runs the full request pipeline: transformation,
// metadata refresh, budget allocation, private execution, payload formation
// and delivery. Every outcome, success or failure, ends as a result payload.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pterm/pterm"

	"veil/engine/internal/budget"
	"veil/engine/internal/config"
	"veil/engine/internal/dsn"
	"veil/engine/internal/errors"
	"veil/engine/internal/logging"
	"veil/engine/internal/metadata"
	"veil/engine/internal/payload"
	"veil/engine/internal/privexec"
	"veil/engine/internal/profiler"
	"veil/engine/internal/request"
	"veil/engine/internal/secrets"
	"veil/engine/internal/tablename"
	"veil/engine/internal/transform"
)

// State names a pipeline stage. Handle records the states it passes through.
type State string

const (
	StateIdle                  State = "idle"
	StateTransformationPending State = "transformation_pending"
	StateMetadataRefresh       State = "metadata_refresh"
	StateExecuting             State = "executing"
	StateFormatting            State = "formatting"
	StateDelivering            State = "delivering"
	StateDone                  State = "done"
	StateFailed                State = "failed"
)

// DB is the database handle the pipeline needs: queries for profiling and
// transactions for transformations. *pgxpool.Pool satisfies it.
type DB interface {
	profiler.DB
	transform.DB
	Close()
}

// Connector opens a database handle for the given connection string.
type Connector func(ctx context.Context, dsn string) (DB, error)

// Deliverer posts a finished payload to the validation API.
type Deliverer interface {
	Submit(ctx context.Context, p *payload.ResultPayload, confidential bool) error
}

// DelivererFactory builds a deliverer once the API token is known.
type DelivererFactory func(token string) Deliverer

// Orchestrator wires the pipeline's capabilities together.
type Orchestrator struct {
	cfg       config.Config
	secrets   secrets.Store
	snapshots metadata.Store
	connect   Connector
	executors privexec.Factory
	deliver   DelivererFactory
}

// New creates an orchestrator from its capabilities.
func New(cfg config.Config, sec secrets.Store, snapshots metadata.Store, connect Connector, executors privexec.Factory, deliver DelivererFactory) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		secrets:   sec,
		snapshots: snapshots,
		connect:   connect,
		executors: executors,
		deliver:   deliver,
	}
}

// Outcome is the result of handling one request. Payload is always set:
// compute failures are folded into an error payload and recorded in Failure.
type Outcome struct {
	Payload   *payload.ResultPayload
	Trace     []State
	Delivered bool
	Failure   error
}

// Handle runs one request through the pipeline. Compute failures become error
// payloads with the request's identifiers and epsilon preserved. Unless the
// request is a debug run, the payload is posted exactly once; a delivery
// failure is logged and swallowed, never raised, and the private execution is
// never repeated.
func (o *Orchestrator) Handle(ctx context.Context, req *request.Request) *Outcome {
	out := &Outcome{}
	record := func(s State) { out.Trace = append(out.Trace, s) }
	record(StateIdle)

	id := uuid.NewString()
	pterm.Info.Printfln("[%s] handling command %d run %d (epsilon %v)", id, req.CommandID, req.RunID, float64(req.Epsilon))

	creds, credsErr := o.secrets.Retrieve(ctx, o.cfg.SecretName)
	if credsErr != nil {
		out.Failure = credsErr
	} else {
		p, err := o.compute(ctx, req, creds, record)
		if err != nil {
			out.Failure = err
		} else {
			out.Payload = p
		}
	}

	if out.Failure != nil {
		record(StateFailed)
		pterm.Warning.Printfln("[%s] %s", id, logging.Mask(out.Failure.Error()))
		out.Payload = payload.FormatError(req, out.Failure)
	}

	switch {
	case req.Debug:
		pterm.Info.Printfln("[%s] debug run, skipping delivery", id)
	case credsErr != nil:
		pterm.Warning.Printfln("[%s] no API token available, skipping delivery", id)
	default:
		record(StateDelivering)
		if err := o.deliver(creds.Token).Submit(ctx, out.Payload, req.ConfidentialQuery); err != nil {
			pterm.Warning.Println(logging.PresentError(fmt.Sprintf("[%s] delivering result payload", id), err))
		} else {
			out.Delivered = true
			pterm.Info.Printfln("[%s] payload delivered", id)
		}
	}

	record(StateDone)
	return out
}

// compute runs the stages that can fail into an error payload: optional
// transformation, metadata, budget allocation and private execution.
func (o *Orchestrator) compute(ctx context.Context, req *request.Request, creds secrets.Credentials, record func(State)) (*payload.ResultPayload, error) {
	raw, err := o.snapshots.Fetch(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.SchemaIntrospection, "fetching metadata snapshot", err)
	}
	meta, err := metadata.Decode(raw)
	if err != nil {
		return nil, errors.Wrap(errors.SchemaIntrospection, "decoding metadata snapshot", err)
	}

	conn := dsn.FromCredentials(creds.Host, creds.Port.String(), creds.Username, creds.Password, o.cfg.Database)

	if req.HasTransformation() {
		db, err := o.connect(ctx, conn)
		if err != nil {
			return nil, errors.Wrap(errors.SchemaIntrospection, "connecting to database", err)
		}
		defer db.Close()

		// Confidential runs reuse the transformed table a synthetic run
		// already created; only non-confidential runs recreate it.
		if !req.ConfidentialQuery {
			record(StateTransformationPending)
			if err := transform.Run(ctx, db, o.cfg.SchemaPrefix, req.TransformationQuery); err != nil {
				return nil, err
			}
		}

		record(StateMetadataRefresh)
		qualified, err := tablename.Extract(req.TransformationQuery, o.cfg.SchemaPrefix)
		if err != nil {
			return nil, errors.Wrap(errors.SchemaIntrospection, "locating transformed table", err)
		}
		schema, table := tablename.Split(qualified)
		meta, err = profiler.New(db, o.cfg.Database).Profile(ctx, schema, table)
		if err != nil {
			return nil, err
		}
	}

	record(StateExecuting)
	exec, err := o.executors(ctx, conn, o.cfg.Database)
	if err != nil {
		return nil, errors.Wrap(errors.PrivateExecution, "creating private executor", err)
	}
	b, err := budget.Allocate(ctx, exec, meta, req.AnalysisQuery, float64(req.Epsilon))
	if err != nil {
		return nil, err
	}
	data, acc, err := exec.Execute(ctx, req.AnalysisQuery, meta, b.Privacy())
	if err != nil {
		return nil, errors.Wrap(errors.PrivateExecution, "executing analysis query", err)
	}

	record(StateFormatting)
	p, err := payload.Format(req, data, acc)
	if err != nil {
		return nil, errors.Wrap(errors.PrivateExecution, "formatting result payload", err)
	}
	return p, nil
}
