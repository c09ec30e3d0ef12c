// Package fixture builds IR programs from YAML or CUE descriptions.
//
// Fixtures stand in for a front end: they let the CLI and tests produce
// programs to encode without a parser. A YAML fixture looks like:
//
//	file: sample.rb
//	scopes:
//	  - name: main
//	    kind: SCRIPT_BODY
//	    line: 1
//	    static: {kind: LOCAL, variables: [x]}
//	    instrs:
//	      - op: CALL
//	        result: {local: x}
//	        receiver: {local: x}
//	        method: succ
//	      - op: RETURN
//	        value: {nil: true}
//
// Variables with the same name within one scope resolve to one instance.
package fixture
