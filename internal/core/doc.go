// Package core provides the business logic for spreadsheet combine/split jobs.
//
// This package sits between the HTTP layer and the tabular engine, containing
// all domain logic independent of any transport. It can be driven by web
// handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Operation Definitions: Registered via the registry, each operation
//     declares its input arity, accepted file types, and a Run function.
//   - Service: The main entry point (stage uploads, submit jobs, subscribe
//     to progress, fetch results and artifacts).
//   - Store: Postgres-backed job persistence, so history and queued work
//     survive restarts.
//   - Runner: A bounded worker pool that claims queued jobs and executes
//     their operations.
//
// # Operation Registry
//
// Operations are registered at init time using [Register]. Each
// [OperationDefinition] contains everything needed to execute one kind of
// job:
//
//	core.Register(core.OperationDefinition{
//	    Info: core.OperationInfo{
//	        Key:       "concatenate",
//	        Group:     "Combine",
//	        Label:     "Stack tables",
//	        MinInputs: 2,
//	    },
//	    Run: runConcatenate,
//	})
//
// # Job Lifecycle
//
// A job moves through queued -> running -> succeeded|failed|cancelled. The
// flow is:
//
//  1. Client calls [Service.Submit] with an operation key, staged input ids,
//     and a params payload
//  2. Service persists a queued row and wakes the runner
//  3. A worker claims the row, executes the operation, and reports progress
//  4. Progress is broadcast to subscribers via [Service.SubscribeProgress]
//  5. The artifact is written under the artifacts directory for download
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - SCH001-SCH003: Schema errors (mismatch, coercion, duplicate labels)
//   - JN001-JN003: Join errors (missing keys, type conflicts, size)
//   - OP001-OP004: Operation errors (unknown key, bad inputs, bad params)
//   - JOB001-JOB006: Job errors (not found, cancelled, timeout, queue full, artifacts)
//   - FILE001-FILE006: File errors (size, format, parsing)
//   - DB001-DB003: Database errors (connections, constraints)
//   - RATE001-RATE002: Throttling (request rate, upload slots)
//
// # Maintenance
//
// A background scheduler requeues jobs stranded in the running state by a
// crash, purges job rows past the retention window, and sweeps orphaned
// files from the staging and artifacts directories.
package core
