//go:build tools

package plan

import _ "github.com/dmarkham/enumer"
