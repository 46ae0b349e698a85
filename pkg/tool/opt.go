package tool

import (
	// Packages
	opt "github.com/debtstack-ai/debtstack/pkg/opt"
)

// WithToolkit declares the toolkit to the model.
// The toolkit is stored under opt.ToolkitKey and can be retrieved
// with opts.Get(opt.ToolkitKey) and type-asserted to *Toolkit.
func WithToolkit(toolkit *Toolkit) opt.Opt {
	return opt.SetAny(opt.ToolkitKey, toolkit)
}
