package session_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
	"github.com/san-kum/odelab/internal/session"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Suite")
}

var _ = Describe("Session", func() {
	var s *session.Session

	BeforeEach(func() {
		s = session.New("decay")
		for _, in := range []string{"N", "-k*N", "0, 10", "100", "0.5"} {
			Expect(s.Handle(in).Err).NotTo(HaveOccurred())
		}
		Expect(s.Step()).To(Equal(session.StepReady))
	})

	It("offers solve, edit and cancel", func() {
		r := s.Prompt()
		Expect(r.Choices).To(ConsistOf("solve", "edit", "cancel"))
	})

	It("asks which field to edit", func() {
		r := s.Handle("edit")
		Expect(r.Step).To(Equal(session.StepEditField))
		Expect(r.Choices).To(Equal(model.EditableFields()))
	})

	Context("editing the time interval", func() {
		It("swaps in a new descriptor and keeps the old one intact", func() {
			before := s.Descriptor()
			Expect(s.Handle("edit time interval").Step).To(Equal(session.StepEditValue))

			r := s.Handle("0, 3")
			Expect(r.Err).NotTo(HaveOccurred())
			Expect(r.Step).To(Equal(session.StepReady))

			after := s.Descriptor()
			Expect(after).NotTo(BeIdenticalTo(before))
			_, t1 := after.TimeSpan()
			Expect(t1).To(Equal(3.0))
			_, t1 = before.TimeSpan()
			Expect(t1).To(Equal(10.0))
			Expect(after.InitialConditions()).To(Equal(before.InitialConditions()))
			Expect(after.Parameters()).To(Equal(before.Parameters()))
		})

		It("repeats the question on a bad interval", func() {
			s.Handle("edit")
			s.Handle("time interval")
			before := s.Descriptor()

			r := s.Handle("10, 0")
			Expect(r.Err).To(MatchError(dynamo.ErrInvalidTimeSpan))
			Expect(r.Step).To(Equal(session.StepEditValue))
			Expect(s.Descriptor()).To(BeIdenticalTo(before))
		})
	})

	DescribeTable("edits each field",
		func(field, value string, check func(d *model.Descriptor)) {
			s.Handle("edit " + field)
			r := s.Handle(value)
			Expect(r.Err).NotTo(HaveOccurred())
			check(s.Descriptor())
		},
		Entry("initial conditions", "initial conditions", "42", func(d *model.Descriptor) {
			Expect(d.InitialConditions()).To(Equal([]float64{42}))
		}),
		Entry("number of points", "number of points", "250", func(d *model.Descriptor) {
			Expect(d.Resolution()).To(Equal(250))
		}),
		Entry("parameters", "parameters", "2", func(d *model.Descriptor) {
			Expect(d.Parameters()).To(Equal([]float64{2}))
		}),
	)

	It("rejects unknown fields", func() {
		r := s.Handle("edit colour")
		Expect(r.Err).To(HaveOccurred())
		Expect(r.Step).To(Equal(session.StepEditField))
	})

	It("reports when there are no parameters to edit", func() {
		d, err := model.BuildText("osc", "y[1], -y[0]", "0, 1", "1, 0", "", model.Options{})
		Expect(err).NotTo(HaveOccurred())
		s.Load(d)

		r := s.Handle("edit parameters")
		Expect(r.Step).To(Equal(session.StepReady))
		Expect(r.Prompt).To(HavePrefix("There are no parameters to edit."))
	})
})
