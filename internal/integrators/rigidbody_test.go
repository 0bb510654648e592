package integrators

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/dynamo"
)

func newIntegrator(mutate func(c *config.Config)) *SemiImplicitEuler {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return NewSemiImplicitEuler(cfg.Kite, cfg.Integration, cfg.Safety)
}

func TestIntegrateLinearFreeFall(t *testing.T) {
	e := newIntegrator(func(c *config.Config) { c.Integration.LinearDamping = 0 })
	body := dynamo.NewRigidBody(mgl64.Vec3{0, 10, 0}, mgl64.QuatIdent())
	force := mgl64.Vec3{0, -config.DefaultMass * config.DefaultGravity, 0}

	dt := 0.01
	step := e.IntegrateLinear(&body, force, dt)

	if math.Abs(step.Acceleration-config.DefaultGravity) > 1e-9 {
		t.Errorf("acceleration = %v, want %v", step.Acceleration, config.DefaultGravity)
	}
	if step.AccelerationClamped || step.VelocityClamped {
		t.Error("free fall should not clamp")
	}
	wantV := -config.DefaultGravity * dt
	if math.Abs(body.Velocity.Y()-wantV) > 1e-12 {
		t.Errorf("vy = %v, want %v", body.Velocity.Y(), wantV)
	}
	// semi-implicit: position uses the updated velocity
	if math.Abs(body.Position.Y()-(10+wantV*dt)) > 1e-12 {
		t.Errorf("y = %v, want %v", body.Position.Y(), 10+wantV*dt)
	}
}

func TestIntegrateLinearDamping(t *testing.T) {
	e := newIntegrator(nil)
	body := dynamo.NewRigidBody(mgl64.Vec3{}, mgl64.QuatIdent())
	body.Velocity = mgl64.Vec3{5, 0, 0}

	e.IntegrateLinear(&body, mgl64.Vec3{}, 0.5)
	want := 5 * math.Exp(-config.DefaultLinearDamping*0.5)
	if math.Abs(body.Velocity.X()-want) > 1e-12 {
		t.Errorf("vx = %v, want %v", body.Velocity.X(), want)
	}
}

func TestIntegrateLinearEnvelope(t *testing.T) {
	tests := []struct {
		name      string
		velocity  mgl64.Vec3
		force     mgl64.Vec3
		wantAccel bool
		wantVel   bool
	}{
		{"calm", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, false, false},
		{"huge force", mgl64.Vec3{}, mgl64.Vec3{500, 0, 0}, true, false},
		{"fast", mgl64.Vec3{0, 0, 80}, mgl64.Vec3{}, false, true},
		{"both", mgl64.Vec3{40, 0, 0}, mgl64.Vec3{900, 0, 0}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newIntegrator(nil)
			body := dynamo.NewRigidBody(mgl64.Vec3{}, mgl64.QuatIdent())
			body.Velocity = tt.velocity

			step := e.IntegrateLinear(&body, tt.force, 0.01)
			if step.AccelerationClamped != tt.wantAccel {
				t.Errorf("acceleration clamped = %v, want %v", step.AccelerationClamped, tt.wantAccel)
			}
			if step.VelocityClamped != tt.wantVel {
				t.Errorf("velocity clamped = %v, want %v", step.VelocityClamped, tt.wantVel)
			}
			if v := body.Velocity.Len(); v > config.DefaultMaxVelocity+1e-9 {
				t.Errorf("|v| = %v above envelope", v)
			}
		})
	}
}

func TestIntegrateAngular(t *testing.T) {
	e := newIntegrator(func(c *config.Config) { c.Integration.AngularDamping = 0 })
	body := dynamo.NewRigidBody(mgl64.Vec3{}, mgl64.QuatIdent())
	body.AngularVelocity = mgl64.Vec3{0, math.Pi, 0}

	if e.IntegrateAngular(&body, mgl64.Vec3{}, 0.5) {
		t.Error("unexpected clamp")
	}
	// half a turn per second for half a second: a quarter turn about Y
	got := body.Orientation.Rotate(mgl64.Vec3{0, 0, 1})
	if !got.ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Errorf("rotated +Z = %v, want +X", got)
	}
	if math.Abs(body.Orientation.Len()-1) > 1e-12 {
		t.Errorf("|q| = %v, want 1", body.Orientation.Len())
	}
}

func TestIntegrateAngularEnvelope(t *testing.T) {
	e := newIntegrator(nil)
	body := dynamo.NewRigidBody(mgl64.Vec3{}, mgl64.QuatIdent())
	body.AngularVelocity = mgl64.Vec3{100, 0, 0}

	if !e.IntegrateAngular(&body, mgl64.Vec3{1e6, 0, 0}, 0.01) {
		t.Error("expected angular clamp")
	}
	if w := body.AngularVelocity.Len(); w > config.DefaultMaxAngularVelocity+1e-9 {
		t.Errorf("|ω| = %v above envelope", w)
	}
}

func TestResolveGround(t *testing.T) {
	points := []mgl64.Vec3{{0, 0.65, 0}, {0, 0, 0}, {-0.8, 0, 0}, {0.8, 0, 0}}

	body := dynamo.NewRigidBody(mgl64.Vec3{1, -0.2, 2}, mgl64.QuatIdent())
	body.Velocity = mgl64.Vec3{2, -3, -4}

	if !ResolveGround(&body, points, config.DefaultMinHeight, config.DefaultGroundFriction) {
		t.Fatal("expected contact")
	}
	if math.Abs(body.Position.Y()-config.DefaultMinHeight) > 1e-12 {
		t.Errorf("y = %v, want %v", body.Position.Y(), config.DefaultMinHeight)
	}
	if body.Velocity.Y() < 0 {
		t.Errorf("vy = %v, want >= 0", body.Velocity.Y())
	}
	wantVx, wantVz := 2*config.DefaultGroundFriction, -4*config.DefaultGroundFriction
	if math.Abs(body.Velocity.X()-wantVx) > 1e-12 || math.Abs(body.Velocity.Z()-wantVz) > 1e-12 {
		t.Errorf("horizontal velocity = %v, want (%v, %v)", body.Velocity, wantVx, wantVz)
	}

	airborne := dynamo.NewRigidBody(mgl64.Vec3{0, 5, 0}, mgl64.QuatIdent())
	airborne.Velocity = mgl64.Vec3{1, -1, 1}
	before := airborne
	if ResolveGround(&airborne, points, config.DefaultMinHeight, config.DefaultGroundFriction) {
		t.Error("unexpected contact")
	}
	if airborne != before {
		t.Error("airborne body changed")
	}
}

func TestResolveGroundRotated(t *testing.T) {
	// nose pointing straight down: it is the lowest point
	q := mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 0, 1})
	body := dynamo.NewRigidBody(mgl64.Vec3{0, 0.5, 0}, q)
	points := []mgl64.Vec3{{0, 0.65, 0}, {0, 0, 0}}

	ResolveGround(&body, points, 0.1, 1)
	if lowest := body.ToWorld(points[0]).Y(); math.Abs(lowest-0.1) > 1e-9 {
		t.Errorf("nose height = %v, want 0.1", lowest)
	}
}

func BenchmarkIntegrate(b *testing.B) {
	e := newIntegrator(nil)
	body := dynamo.NewRigidBody(mgl64.Vec3{0, 8, -12}, mgl64.QuatIdent())
	force := mgl64.Vec3{0.2, 1, -0.5}
	torque := mgl64.Vec3{0.01, 0, 0.02}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.IntegrateLinear(&body, force, 1.0/60)
		e.IntegrateAngular(&body, torque, 1.0/60)
	}
}
