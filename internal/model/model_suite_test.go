package model_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
)

func TestModel(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Model Suite")
}

var _ = Describe("Descriptor", func() {
	var d *model.Descriptor

	BeforeEach(func() {
		var err error
		d, err = model.GetPreset("love", "ideal").Build("love")
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps the declared variables and parameter names", func() {
		Expect(d.Variables()).To(Equal([]string{"J", "R"}))
		Expect(d.ParameterNames()).To(HaveLen(14))
		Expect(d.Parameters()).To(HaveLen(14))
		Expect(d.Resolution()).To(Equal(1000))
	})

	DescribeTable("rejects bad time spans",
		func(span string) {
			_, err := d.Edit(model.EditTimeSpan, span)
			Expect(err).To(MatchError(dynamo.ErrInvalidTimeSpan))
		},
		Entry("reversed", "10,0"),
		Entry("three values", "0,5,10"),
		Entry("empty", ""),
	)

	Context("when edited", func() {
		It("returns a new descriptor and leaves the original alone", func() {
			e, err := d.WithTimeSpan(0, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).NotTo(BeIdenticalTo(d))

			t0, t1 := d.TimeSpan()
			Expect([]float64{t0, t1}).To(Equal([]float64{0, 1}))
			t0, t1 = e.TimeSpan()
			Expect([]float64{t0, t1}).To(Equal([]float64{0, 3}))

			Expect(e.InitialConditions()).To(Equal(d.InitialConditions()))
			Expect(e.Parameters()).To(Equal(d.Parameters()))
			Expect(e.Description()).To(Equal(d.Description()))
		})

		It("replaces every parameter at once", func() {
			e, err := d.Edit(model.EditParameters, "0,0,0,0,0,0,0,0,0,0,0,0,0,1")
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Parameters()[13]).To(Equal(1.0))
			Expect(d.Parameters()[13]).To(Equal(0.1))
		})
	})
})
