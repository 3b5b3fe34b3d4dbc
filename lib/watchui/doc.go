// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package watchui implements the terminal dashboard for a faultline
// telemetry session. Built on bubbletea (Elm architecture), it renders
// the link state, the latest classification with a confidence gauge,
// throughput and loss counters, the per-class distribution, and the
// rolling history strip.
//
// The dashboard is a passive consumer: session events reach the model
// through [ProgramSink], which forwards them into the bubbletea
// message loop, and the only calls it makes back into the session are
// the user-initiated connect/disconnect and demo toggles, dispatched
// as asynchronous commands so the event loop never blocks on the link
// machine.
//
// Data flow:
//
//	[link machine / demo source]
//	        | (session fan-out)
//	   [ProgramSink] -> program.Send
//	        |
//	    [Model] <- bubbletea event loop
//	        |
//	  [terminal output]
package watchui
