/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package util

import (
	"github.com/vnlabs/vndap/parser"
)

/*
VNExprDebugger is the expression-level trace hook the interpreter calls
into while it evaluates an AST. The debug coordinator implements this
interface to observe (and suspend on) every state, function entry and
function exit of a running script.
*/
type VNExprDebugger interface {

	/*
		VisitState is called for every state during the execution of a
		program. Returning a non-nil error aborts evaluation.
	*/
	VisitState(node *parser.ASTNode, vs parser.Scope, tid uint64) TraceableRuntimeError

	/*
		VisitStepInState is called before entering a function call.
	*/
	VisitStepInState(node *parser.ASTNode, vs parser.Scope, tid uint64) TraceableRuntimeError

	/*
		VisitStepOutState is called after returning from a function call.
	*/
	VisitStepOutState(node *parser.ASTNode, vs parser.Scope, tid uint64, soErr error) TraceableRuntimeError
}

/*
Processor models a top level execution instance for the embedded expression
language.
*/
type Processor interface {
}

/*
VNExprImportLocator is used to resolve imports of the embedded expression
language.
*/
type VNExprImportLocator interface {

	/*
		Resolve a given import path and return the source text of the imported file.
	*/
	Resolve(path string) (string, error)
}

/*
VNExprPluginFunction models a callable function in the embedded expression
language which is provided by a Go plugin.
*/
type VNExprPluginFunction interface {

	/*
		Run executes this function with a given list of arguments.
	*/
	Run(args []interface{}) (interface{}, error)

	/*
		DocString returns a descriptive text about this function.
	*/
	DocString() string
}

/*
VNExprFunction models a callable function in the embedded expression language.
*/
type VNExprFunction interface {

	/*
		Run executes this function. The envirnment provides a unique instanceID for
		every code location in the running code, the variable scope of the function,
		an instance state which can be used in combinartion with the instanceID
		to store instance specific state (e.g. for iterator functions) and a list
		of argument values which were passed to the function by the calling code.
	*/
	Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error)

	/*
	   DocString returns a descriptive text about this function.
	*/
	DocString() (string, error)
}

/*
Logger is required external object to which the interpreter releases its log messages.
*/
type Logger interface {

	/*
	   LogError adds a new error log message.
	*/
	LogError(v ...interface{})

	/*
	   LogInfo adds a new info log message.
	*/
	LogInfo(v ...interface{})

	/*
	   LogDebug adds a new debug log message.
	*/
	LogDebug(v ...interface{})
}
