package main

import (
	"strings"

	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/runtime"
)

type demoFunc struct {
	name     string
	desc     string
	fastcall bool
	handle   pycall.Handle
}

// setupRuntime builds a Local runtime with the demo callables registered.
func setupRuntime() (*runtime.Local, []demoFunc, error) {
	rt := runtime.NewLocal()

	specs := []struct {
		name     string
		desc     string
		fastcall bool
		fn       runtime.Func
	}{
		{
			name:     "sum",
			desc:     "add integer arguments; keyword values are added too",
			fastcall: true,
			fn: func(rt *runtime.Local, args []pycall.Handle, kwnames []string, kwvals []pycall.Handle) (pycall.Handle, error) {
				var total int64
				for _, h := range append(append([]pycall.Handle{}, args...), kwvals...) {
					v, err := rt.IntValue(h)
					if err != nil {
						return 0, err
					}
					total += v
				}
				return rt.NewInt(total)
			},
		},
		{
			name:     "concat",
			desc:     "join string arguments; sep= sets the separator",
			fastcall: true,
			fn: func(rt *runtime.Local, args []pycall.Handle, kwnames []string, kwvals []pycall.Handle) (pycall.Handle, error) {
				sep := ""
				for i, n := range kwnames {
					if n == "sep" {
						s, err := rt.StringValue(kwvals[i])
						if err != nil {
							return 0, err
						}
						sep = s
					}
				}
				parts := make([]string, 0, len(args))
				for _, h := range args {
					s, err := rt.StringValue(h)
					if err != nil {
						return 0, err
					}
					parts = append(parts, s)
				}
				return rt.NewString(strings.Join(parts, sep))
			},
		},
		{
			name:     "count",
			desc:     "report positional and keyword argument counts",
			fastcall: false,
			fn: func(rt *runtime.Local, args []pycall.Handle, kwnames []string, kwvals []pycall.Handle) (pycall.Handle, error) {
				p, err := rt.NewInt(int64(len(args)))
				if err != nil {
					return 0, err
				}
				k, err := rt.NewInt(int64(len(kwvals)))
				if err != nil {
					rt.DecRef(p)
					return 0, err
				}
				t, err := rt.NewTuple(2)
				if err != nil {
					rt.DecRef(p)
					rt.DecRef(k)
					return 0, err
				}
				rt.TupleSet(t, 0, p)
				rt.TupleSet(t, 1, k)
				return t, nil
			},
		},
		{
			name:     "echo",
			desc:     "return the first argument unchanged",
			fastcall: true,
			fn: func(rt *runtime.Local, args []pycall.Handle, kwnames []string, kwvals []pycall.Handle) (pycall.Handle, error) {
				if len(args) == 0 {
					return 0, nil
				}
				rt.IncRef(args[0])
				return args[0], nil
			},
		},
	}

	funcs := make([]demoFunc, 0, len(specs))
	for _, s := range specs {
		h, err := rt.NewFunc(s.fn, s.fastcall)
		if err != nil {
			rt.Close()
			return nil, nil, err
		}
		funcs = append(funcs, demoFunc{name: s.name, desc: s.desc, fastcall: s.fastcall, handle: h})
	}
	return rt, funcs, nil
}
