// Package tactile is beeno's hands: it checks capability grants against
// source and runs approved source in the script runtime.
package tactile

import (
	"fmt"
	"strings"

	"beeno/internal/types"
)

// capability is one permission category and the source markers that need it.
type capability struct {
	flag    string
	markers []string
	granted func(types.PermissionSet) bool
}

// capabilities are checked in this order; the first missing grant is reported.
var capabilities = []capability{
	{
		flag:    "read",
		markers: []string{"Deno.readTextFile", "Deno.readFile", "Deno.open("},
		granted: func(p types.PermissionSet) bool { return len(p.AllowRead) > 0 },
	},
	{
		flag:    "write",
		markers: []string{"Deno.writeTextFile", "Deno.writeFile", "Deno.mkdir("},
		granted: func(p types.PermissionSet) bool { return len(p.AllowWrite) > 0 },
	},
	{
		flag:    "net",
		markers: []string{"fetch(", "WebSocket(", "Deno.connect("},
		granted: func(p types.PermissionSet) bool { return len(p.AllowNet) > 0 },
	},
	{
		flag:    "env",
		markers: []string{"Deno.env.get", "Deno.env.toObject", "Deno.env.set"},
		granted: func(p types.PermissionSet) bool { return p.AllowEnv },
	},
	{
		flag:    "run",
		markers: []string{"Deno.Command", "Deno.run("},
		granted: func(p types.PermissionSet) bool { return p.AllowRun },
	},
}

// EnforcePermissions fails with an ErrExecution EngineError when source uses
// a capability the grant does not include. It only looks at substrings; it
// does not check that a grant covers the specific path or host used.
func EnforcePermissions(source string, perms types.PermissionSet) error {
	for _, c := range capabilities {
		if c.granted(perms) {
			continue
		}
		for _, m := range c.markers {
			if strings.Contains(source, m) {
				return types.NewExecutionError(
					fmt.Sprintf("code requires --allow-%s but none was provided", c.flag), nil)
			}
		}
	}
	return nil
}

// RequiredPermissions lists the categories source appears to need, in check order.
func RequiredPermissions(source string) []string {
	var out []string
	for _, c := range capabilities {
		for _, m := range c.markers {
			if strings.Contains(source, m) {
				out = append(out, c.flag)
				break
			}
		}
	}
	return out
}

// PermissionArgs renders a grant as runtime flags.
func PermissionArgs(perms types.PermissionSet) []string {
	var args []string
	if len(perms.AllowRead) > 0 {
		args = append(args, "--allow-read="+strings.Join(perms.AllowRead, ","))
	}
	if len(perms.AllowWrite) > 0 {
		args = append(args, "--allow-write="+strings.Join(perms.AllowWrite, ","))
	}
	if len(perms.AllowNet) > 0 {
		args = append(args, "--allow-net="+strings.Join(perms.AllowNet, ","))
	}
	if perms.AllowEnv {
		args = append(args, "--allow-env")
	}
	if perms.AllowRun {
		args = append(args, "--allow-run")
	}
	return args
}
