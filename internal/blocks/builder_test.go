package blocks_test

import (
	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/blocksim/internal/block"
	"github.com/san-kum/blocksim/internal/blocks"
	"github.com/san-kum/blocksim/internal/bus"
	"github.com/san-kum/blocksim/internal/errdefs"
	"github.com/san-kum/blocksim/internal/model"
	"github.com/san-kum/blocksim/internal/signal"
)

// scenarioSpec is {x0, x1, Z:{z3}, x2}.
func scenarioSpec() *bus.Spec {
	return bus.MustSpec(
		bus.Scalar("x0"),
		bus.Scalar("x1"),
		bus.Nested("Z", bus.MustSpec(bus.Scalar("z3"))),
		bus.Scalar("x2"),
	)
}

func quietModel() *model.Model {
	l := log.New(GinkgoWriter)
	l.SetLevel(log.DebugLevel)
	return model.New("m", model.WithLogger(l))
}

var _ = Describe("BusBuilder", func() {
	var (
		m       *model.Model
		in, out *bus.Bus
	)

	BeforeEach(func() {
		m = quietModel()
		var err error
		in, err = m.NewBus("in", scenarioSpec())
		Expect(err).NotTo(HaveOccurred())
		out, err = m.NewBus("out", scenarioSpec())
		Expect(err).NotTo(HaveOccurred())
	})

	build := func(excluded ...string) *blocks.BusMemory {
		mem := blocks.NewBusMemory("mem", nil, excluded...)
		Expect(mem.Init(m, in, out)).To(Succeed())
		Expect(m.Init()).To(Succeed())
		return mem
	}

	It("synthesizes one child per leaf in pre-order", func() {
		mem := build()
		Expect(mem.Children()).To(HaveLen(scenarioSpec().TotalSize()))
		Expect(mem.Labels()).To(Equal([]string{"x0", "x1", "Z.z3", "x2"}))

		names := make([]string, 0, 4)
		for _, c := range mem.Children() {
			names = append(names, c.Name().String())
		}
		Expect(names).To(Equal([]string{"mem/x0", "mem/x1", "mem/Z.z3", "mem/x2"}))
	})

	It("wires each child to the matching input and output leaves", func() {
		mem := build()
		for i, label := range mem.Labels() {
			child := mem.Children()[i].(*blocks.Memory)
			inSig, err := in.At(label)
			Expect(err).NotTo(HaveOccurred())
			outSig, err := out.At(label)
			Expect(err).NotTo(HaveOccurred())
			Expect(child.Input()).To(BeIdenticalTo(inSig))
			Expect(child.Output()).To(BeIdenticalTo(outSig))
		}
	})

	It("attaches itself, not its children, to the model", func() {
		mem := build()
		Expect(m.Blocks()).To(HaveLen(1))
		Expect(m.Blocks()[0]).To(BeIdenticalTo(mem))
		Expect(m.Leaves()).To(HaveLen(4))
	})

	DescribeTable("exclusions",
		func(excluded []string, want []string) {
			mem := build(excluded...)
			Expect(mem.Labels()).To(Equal(want))
			Expect(mem.Children()).To(HaveLen(len(want)))
		},
		Entry("subtree by its dotted prefix", []string{"Z"}, []string{"x0", "x1", "x2"}),
		Entry("single leaf by its full path", []string{"Z.z3"}, []string{"x0", "x1", "x2"}),
		Entry("top-level leaf", []string{"x1"}, []string{"x0", "Z.z3", "x2"}),
		Entry("unknown label is inert", []string{"nope"}, []string{"x0", "x1", "Z.z3", "x2"}),
		Entry("trailing separator does not match", []string{"Z."}, []string{"x0", "x1", "Z.z3", "x2"}),
		Entry("prefix of a label does not match", []string{"x"}, []string{"x0", "x1", "Z.z3", "x2"}),
		Entry("glob does not match", []string{"Z.*"}, []string{"x0", "x1", "Z.z3", "x2"}),
		Entry("several", []string{"x0", "Z", "x2"}, []string{"x1"}),
	)

	It("fails Init on mismatched specs before any child exists", func() {
		other, err := m.NewBus("other", bus.MustSpec(bus.Scalar("x0")))
		Expect(err).NotTo(HaveOccurred())

		mem := blocks.NewBusMemory("mem", nil)
		err = mem.Init(m, in, other)
		Expect(err).To(MatchError(errdefs.ErrConfig))
		Expect(err.Error()).To(ContainSubstring("bus specs don't match"))
		Expect(mem.Phase()).To(Equal(block.Failed))
		Expect(mem.Children()).To(BeEmpty())
		Expect(m.Blocks()).To(BeEmpty())

		Expect(mem.PostInit()).To(MatchError(errdefs.ErrLifecycle))
		Expect(mem.Children()).To(BeEmpty())
	})

	It("treats specs built separately with the same shape as equal", func() {
		fresh := bus.New("fresh", scenarioSpec())
		mem := blocks.NewBusMemory("mem", nil)
		Expect(mem.Init(m, in, fresh)).To(Succeed())
	})

	It("rejects a leaf func that builds no block", func() {
		b := blocks.NewBusBuilder("lazy", func(block.Container, string, bus.WireInfo, *signal.Signal, *signal.Signal) error {
			return nil
		})
		Expect(b.Init(m, in, out)).To(Succeed())
		Expect(m.Init()).To(MatchError(errdefs.ErrConfig))
		Expect(b.Phase()).To(Equal(block.Failed))
		Expect(b.Children()).To(BeEmpty())
	})

	It("refuses attachments outside of PostInit", func() {
		b := blocks.NewBusGain("g", 2)
		Expect(b.Init(m, in, out)).To(Succeed())
		Expect(b.Attach(blocks.NewGain("stray", 1))).To(MatchError(errdefs.ErrLifecycle))
	})

	It("reserves children for deep specs", func() {
		deep := bus.MustSpec(
			bus.Nested("A", bus.MustSpec(
				bus.Nested("B", bus.MustSpec(bus.Scalar("c"), bus.Leaf("d", signal.IntType))),
				bus.Leaf("e", signal.ArrayType(3)),
			)),
			bus.Leaf("f", signal.BoolType),
		)
		a := bus.New("a", deep)
		b := bus.New("b", deep)
		mem := blocks.NewBusMemory("deep", nil, "A.B")
		Expect(mem.Init(m, a, b)).To(Succeed())
		Expect(m.Init()).To(Succeed())
		Expect(mem.Labels()).To(Equal([]string{"A.e", "f"}))
	})
})

var _ = Describe("BusMemory", func() {
	var (
		m       *model.Model
		in, out *bus.Bus
	)

	BeforeEach(func() {
		m = quietModel()
		in = bus.New("in", scenarioSpec())
		out = bus.New("out", scenarioSpec())
	})

	It("seeds only the labeled leaf and zeroes the others", func() {
		mem := blocks.NewBusMemory("mem", blocks.InitialValues{"Z.z3": signal.Scalar(1.0)})
		Expect(mem.Init(m, in, out)).To(Succeed())
		Expect(m.Init()).To(Succeed())

		for _, c := range m.Leaves() {
			Expect(c.Activate(0)).To(Succeed())
		}
		for _, p := range []string{"x0", "x1", "x2"} {
			s, err := out.ScalarAt(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Scalar()).To(Equal(0.0))
		}
		z3, err := out.ScalarAt("Z.z3")
		Expect(err).NotTo(HaveOccurred())
		Expect(z3.Scalar()).To(Equal(1.0))
	})

	It("delays its input by one step", func() {
		mem := blocks.NewBusMemory("mem", nil)
		Expect(mem.Init(m, in, out)).To(Succeed())
		Expect(m.Init()).To(Succeed())

		x0In, _ := in.ScalarAt("x0")
		x0Out, _ := out.ScalarAt("x0")
		Expect(x0In.SetScalar(5)).To(Succeed())

		for _, c := range m.Leaves() {
			Expect(c.Activate(0)).To(Succeed())
		}
		Expect(x0Out.Scalar()).To(Equal(0.0))
		for _, c := range m.Leaves() {
			Expect(c.(block.Stateful).Update(0, 0.1)).To(Succeed())
		}
		for _, c := range m.Leaves() {
			Expect(c.Activate(0.1)).To(Succeed())
		}
		Expect(x0Out.Scalar()).To(Equal(5.0))
	})

	It("rejects an initial value of the wrong variant", func() {
		mem := blocks.NewBusMemory("mem", blocks.InitialValues{"x0": signal.Int(1)})
		Expect(mem.Init(m, in, out)).To(Succeed())
		Expect(m.Init()).To(MatchError(errdefs.ErrTypeMismatch))
		Expect(mem.Children()).To(BeEmpty())
	})

	It("uses each leaf type's zero value", func() {
		spec := bus.MustSpec(
			bus.Leaf("n", signal.IntType),
			bus.Leaf("b", signal.BoolType),
			bus.Leaf("v", signal.ArrayType(2)),
		)
		mem := blocks.NewBusMemory("mem", blocks.InitialValues{"v": signal.Array{1, 2}})
		Expect(mem.Init(m, bus.New("i", spec), bus.New("o", spec))).To(Succeed())
		Expect(m.Init()).To(Succeed())

		states := make([]signal.Value, 0, 3)
		for _, c := range mem.Children() {
			states = append(states, c.(*blocks.Memory).State())
		}
		Expect(states).To(Equal([]signal.Value{signal.Int(0), signal.Bool(false), signal.Array{1, 2}}))
	})
})

var _ = Describe("BusGain and BusIntegrator", func() {
	var (
		m       *model.Model
		in, out *bus.Bus
	)

	BeforeEach(func() {
		m = quietModel()
		in = bus.New("in", scenarioSpec())
		out = bus.New("out", scenarioSpec())
		for i, s := range in.Leaves() {
			Expect(s.SetScalar(float64(i + 1))).To(Succeed())
		}
	})

	It("scales every non-excluded wire", func() {
		g := blocks.NewBusGain("gain", 3, "x1")
		Expect(g.Init(m, in, out)).To(Succeed())
		Expect(m.Init()).To(Succeed())
		for _, c := range m.Leaves() {
			Expect(c.Activate(0)).To(Succeed())
		}

		got := make([]float64, 0, 4)
		for _, s := range out.Leaves() {
			f, err := s.Scalar()
			Expect(err).NotTo(HaveOccurred())
			got = append(got, f)
		}
		Expect(got).To(Equal([]float64{3, 0, 9, 12}))
	})

	It("integrates every wire with forward Euler", func() {
		g := blocks.NewBusIntegrator("int", blocks.InitialValues{"x2": signal.Scalar(10)})
		Expect(g.Init(m, in, out)).To(Succeed())
		Expect(m.Init()).To(Succeed())

		for _, c := range m.Leaves() {
			Expect(c.(block.Stateful).Update(0, 0.5)).To(Succeed())
			Expect(c.Activate(0.5)).To(Succeed())
		}
		x2, _ := out.ScalarAt("x2")
		Expect(x2.Scalar()).To(Equal(12.0))
		z3, _ := out.ScalarAt("Z.z3")
		Expect(z3.Scalar()).To(Equal(1.5))
	})
})
