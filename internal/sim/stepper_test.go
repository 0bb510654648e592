package sim_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/dynamo"
	"github.com/san-kum/kitesim/internal/sim"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// stillAir puts the kite well inside line length with no wind, so gravity
// is the only load.
func stillAir(pos mgl64.Vec3) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Wind.Speed, cfg.Wind.Turbulence = 0, 0
	cfg.Kite.InitialPosition = pos
	return cfg
}

func mustStepper(cfg *config.Config, opts ...sim.Option) *sim.Stepper {
	s, err := sim.NewStepper(cfg, opts...)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func lowestGroundPoint(s *sim.Stepper) float64 {
	body := s.RigidBodyState()
	lowest := math.Inf(1)
	for _, p := range s.Geometry().GroundPoints {
		lowest = math.Min(lowest, body.ToWorld(p).Y())
	}
	return lowest
}

var _ = Describe("Stepper", func() {
	const dt = 1.0 / 60

	Describe("construction", func() {
		It("rejects out-of-range parameters", func() {
			cfg := config.DefaultConfig()
			cfg.Kite.Mass = 0
			_, err := sim.NewStepper(cfg)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("rejects geometry with unknown points", func() {
			cfg := config.DefaultConfig()
			cfg.Kite.Geometry.RightControl = "missing"
			_, err := sim.NewStepper(cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidGeometry))
		})

		It("copies the config", func() {
			cfg := config.DefaultConfig()
			s := mustStepper(cfg)
			cfg.Kite.InitialPosition = mgl64.Vec3{0, 1, 0}
			s.Reset()
			Expect(s.RigidBodyState().Position).To(Equal(config.DefaultConfig().Kite.InitialPosition))
		})
	})

	Describe("safety envelope", func() {
		It("keeps velocity and angular velocity bounded in rough air", func() {
			cfg := config.GetPreset("gusty")
			cfg.Wind.Speed = 25
			s := mustStepper(cfg)

			for i := 0; i < 1200; i++ {
				s.Step(dt, 0.8*math.Sin(float64(i)*0.05))
				body := s.RigidBodyState()
				Expect(body.Velocity.Len()).To(BeNumerically("<=", cfg.Safety.MaxVelocity+1e-9))
				Expect(body.AngularVelocity.Len()).To(BeNumerically("<=", cfg.Safety.MaxAngularVelocity+1e-9))
				Expect(body.IsValid()).To(BeTrue())
				Expect(math.Abs(body.Orientation.Len() - 1)).To(BeNumerically("<", 1e-9))

				tn := s.LineTensions()
				Expect(tn.LeftTension).To(BeNumerically("<=", cfg.Lines.MaxTension))
				Expect(tn.RightTension).To(BeNumerically("<=", cfg.Lines.MaxTension))
			}
		})

		It("zeroes a force outside the envelope", func() {
			cfg := config.DefaultConfig()
			cfg.Safety.MaxForce = 1
			s := mustStepper(cfg)

			s.Step(dt, 0)
			Expect(s.Warnings().InvalidForce).To(BeTrue())
			Expect(s.RigidBodyState().Velocity.Len()).To(BeZero())
		})
	})

	Describe("free fall", func() {
		It("accelerates at g with slack lines and no wind", func() {
			cfg := stillAir(mgl64.Vec3{0, 5, -3})
			s := mustStepper(cfg)

			s.Step(0.01, 0)
			w := s.Warnings()
			Expect(w.LastAccelerationMagnitude).To(BeNumerically("~", cfg.Integration.Gravity, 1e-9))
			Expect(w.Any()).To(BeFalse())

			t := s.LineTensions()
			Expect(t.LeftTaut || t.RightTaut).To(BeFalse())

			want := -cfg.Integration.Gravity * 0.01 * math.Exp(-cfg.Integration.LinearDamping*0.01)
			v := s.RigidBodyState().Velocity
			Expect(v.Y()).To(BeNumerically("~", want, 1e-12))
			Expect(v.X()).To(BeZero())
			Expect(v.Z()).To(BeZero())
			Expect(s.RigidBodyState().AngularVelocity.Len()).To(BeZero())
		})
	})

	Describe("ground contact", func() {
		It("lifts the lowest ground point of a pitched kite to the minimum height", func() {
			cfg := stillAir(mgl64.Vec3{0, 2, -3})
			cfg.Kite.InitialPitch = 40
			s := mustStepper(cfg)

			body := s.RigidBodyState()
			body.Position[1] -= lowestGroundPoint(s) - (cfg.Integration.MinHeight - 0.2)
			s.SetBody(body)
			Expect(lowestGroundPoint(s)).To(BeNumerically("~", cfg.Integration.MinHeight-0.2, 1e-9))

			s.Step(0.01, 0)
			Expect(lowestGroundPoint(s)).To(BeNumerically("~", cfg.Integration.MinHeight, 1e-9))
			Expect(s.RigidBodyState().Velocity.Y()).To(BeNumerically(">=", 0))
		})
	})

	Describe("fault recovery", func() {
		It("rolls back to the last valid pose on a NaN velocity", func() {
			s := mustStepper(config.DefaultConfig())
			for i := 0; i < 10; i++ {
				s.Step(dt, 0)
			}
			good := s.RigidBodyState()

			bad := good
			bad.Velocity = mgl64.Vec3{math.NaN(), 0, 0}
			s.SetBody(bad)
			s.Step(dt, 0)

			body := s.RigidBodyState()
			Expect(s.Warnings().InvalidState).To(BeTrue())
			Expect(body.Position).To(Equal(good.Position))
			Expect(body.Orientation).To(Equal(good.Orientation))
			Expect(body.Velocity).To(Equal(mgl64.Vec3{}))
			Expect(body.AngularVelocity).To(Equal(mgl64.Vec3{}))

			tn := s.LineTensions()
			Expect(math.IsNaN(tn.LeftTension) || math.IsNaN(tn.RightTension)).To(BeFalse())

			s.Step(dt, 0)
			Expect(s.Warnings().InvalidState).To(BeFalse())
		})

		It("rolls back to the last valid pose on a NaN position", func() {
			s := mustStepper(config.DefaultConfig())
			for i := 0; i < 10; i++ {
				s.Step(dt, 0)
			}
			good := s.RigidBodyState()

			bad := good
			bad.Position = mgl64.Vec3{math.NaN(), math.NaN(), math.NaN()}
			s.SetBody(bad)
			s.Step(dt, 0)

			body := s.RigidBodyState()
			w := s.Warnings()
			Expect(w.InvalidState).To(BeTrue())
			Expect(w.InvalidTorque).To(BeTrue())
			Expect(body.Position).To(Equal(good.Position))
			Expect(body.Orientation).To(Equal(good.Orientation))
			Expect(body.Velocity).To(Equal(mgl64.Vec3{}))
			Expect(body.AngularVelocity).To(Equal(mgl64.Vec3{}))

			tn := s.LineTensions()
			for _, v := range []float64{tn.LeftTension, tn.RightTension, tn.LeftDistance, tn.RightDistance} {
				Expect(math.IsNaN(v)).To(BeFalse())
			}
		})
	})

	Describe("time step", func() {
		It("ignores non-positive dt", func() {
			s := mustStepper(config.DefaultConfig())
			before := s.RigidBodyState()
			s.Step(0, 0.5)
			s.Step(-0.1, 0.5)
			s.Step(math.NaN(), 0.5)
			Expect(s.RigidBodyState()).To(Equal(before))
			Expect(s.Time()).To(BeZero())
			Expect(s.BarRotation()).To(BeZero())
		})

		It("clamps large dt", func() {
			s := mustStepper(config.DefaultConfig())
			s.Step(1.0, 0)
			Expect(s.Time()).To(BeNumerically("~", config.DefaultMaxDeltaTime, 1e-15))
		})
	})

	Describe("inputs", func() {
		It("eases the bar and moves the handles", func() {
			s := mustStepper(config.DefaultConfig())
			l0, _ := s.Handles()
			for i := 0; i < 120; i++ {
				s.Step(dt, 0.5)
			}
			Expect(s.BarRotation()).To(BeNumerically("~", 0.5, 1e-6))
			l1, _ := s.Handles()
			Expect(l1.Z()).To(BeNumerically(">", l0.Z()))
		})

		It("keeps the last valid wind parameters", func() {
			s := mustStepper(config.DefaultConfig())
			s.SetWindParameters(12, 10, 5)
			s.SetWindParameters(math.NaN(), 0, 0)
			Expect(s.Wind().Speed()).To(Equal(12.0))
			Expect(s.Wind().Direction()).To(Equal(10.0))
		})

		It("changes line length", func() {
			s := mustStepper(config.DefaultConfig())
			s.SetLineLength(20)
			Expect(s.LineLength()).To(Equal(20.0))
			s.SetLineLength(-1)
			s.SetLineLength(math.Inf(1))
			Expect(s.LineLength()).To(Equal(20.0))
		})
	})

	Describe("reset and determinism", func() {
		It("returns to the initial pose", func() {
			cfg := config.DefaultConfig()
			s := mustStepper(cfg)
			for i := 0; i < 60; i++ {
				s.Step(dt, 0.3)
			}
			s.Reset()
			body := s.RigidBodyState()
			Expect(body.Position).To(Equal(cfg.Kite.InitialPosition))
			Expect(body.Velocity).To(Equal(mgl64.Vec3{}))
			Expect(s.Time()).To(BeZero())
			Expect(s.Wind().Time()).To(BeZero())
			Expect(s.BarRotation()).To(BeZero())
		})

		It("produces identical trajectories for identical inputs", func() {
			a := mustStepper(config.GetPreset("gusty"))
			b := mustStepper(config.GetPreset("gusty"))
			for i := 0; i < 300; i++ {
				u := 0.4 * math.Cos(float64(i)*0.02)
				a.Step(dt, u)
				b.Step(dt, u)
			}
			Expect(a.RigidBodyState()).To(Equal(b.RigidBodyState()))
			Expect(a.LineTensions()).To(Equal(b.LineTensions()))
		})
	})

	Describe("telemetry", func() {
		It("publishes a frame matching the accessors", func() {
			s := mustStepper(config.DefaultConfig())
			s.Step(dt, 0.2)
			f := s.Frame()
			Expect(f.Time).To(Equal(s.Time()))
			Expect(f.Body).To(Equal(s.RigidBodyState()))
			Expect(f.Tensions).To(Equal(s.LineTensions()))
			Expect(f.AeroForce).To(Equal(s.Forces().Net))
			Expect(f.BarRotation).To(Equal(s.BarRotation()))
		})

		It("logs a warning once when it is first raised", func() {
			core, logs := observer.New(zap.WarnLevel)
			cfg := stillAir(mgl64.Vec3{0, 5, -3})
			cfg.Safety.MaxVelocity = 0.05
			s := mustStepper(cfg, sim.WithLogger(zap.New(core)))

			for i := 0; i < 10; i++ {
				s.Step(0.01, 0)
				Expect(s.Warnings().ExcessiveVelocity).To(BeTrue())
			}
			Expect(logs.FilterMessage("velocity clamped").Len()).To(Equal(1))
			entry := logs.FilterMessage("velocity clamped").All()[0]
			Expect(entry.ContextMap()).To(HaveKey("magnitude"))
		})
	})
})
