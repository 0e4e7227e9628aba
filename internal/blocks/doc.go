// Package blocks provides leaf blocks (sources, gains, memories, integrators)
// and BusBuilder, which synthesizes one leaf block per wire of a bus.
//
// # Example
//
//	spec := bus.MustSpec(bus.Scalar("x0"), bus.Nested("Z", bus.MustSpec(bus.Scalar("z3"))))
//	in, _ := m.NewBus("in", spec)
//	out, _ := m.NewBus("out", spec)
//	mem := blocks.NewBusMemory("mem", map[string]signal.Value{"Z.z3": signal.Scalar(1)})
//	if err := mem.Init(m, in, out); err != nil {
//		return err
//	}
//	// m.Init() synthesizes one unit delay per leaf: mem/x0, mem/Z.z3
package blocks
