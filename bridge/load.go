package bridge

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/native"
)

// LoadOrReloadDomain loads the domain image at imagePath and makes it the
// current generation. Every handle and native name of the previous
// generation is invalid once this is called, whether it succeeds or not.
//
// The support library at supportPath is bound on the first successful
// binding only; later calls ignore supportPath. Failures leave the bridge
// Unloaded with empty registries.
func (b *Bridge) LoadOrReloadDomain(ctx context.Context, imagePath, supportPath string, editor bool) (err error) {
	ctx, span := b.tracer.Start(ctx, "bridge.load", trace.WithAttributes(
		attribute.String("bridge.image", imagePath),
		attribute.Bool("bridge.editor", editor),
		attribute.Int64("bridge.generation", int64(b.gen.Number+1)),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Load("domain panicked during load", fmt.Errorf("%v", r))
		}
		if err != nil {
			b.abortLoad(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			b.log.Error("domain load failed", zap.String("image", imagePath), zap.Error(err))
		}
	}()

	b.state = StateLoading

	// Step 1: every registry of the previous generation goes away.
	b.types.Clear()
	b.natives.Clear()
	b.natives.SetSink(nil)
	b.objects.Clear()
	old := b.current
	b.current = nil

	// Step 2: one-time support binding, or retire the previous domain.
	if !b.supportSet {
		if err := b.loader.BindSupport(ctx, supportPath); err != nil {
			return errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "bind support library")
		}
		b.supportSet = true
	}
	if old != nil {
		b.retire(ctx, old)
	}

	// Step 3: load the image.
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return errors.Load("read image "+imagePath, err)
	}
	digest := xxhash.Sum64(image)
	span.SetAttributes(attribute.String("bridge.digest", fmt.Sprintf("%016x", digest)))

	d, err := b.loader.Load(ctx, image)
	if err != nil {
		return errors.Load("load domain "+imagePath, err)
	}
	b.current = d

	// Step 4: managed log calls surface through the host logger.
	d.BindLog(b.managedLog(d.Name()))

	// Step 5: the world-object base is mandatory.
	base, ok := d.WorldObjectBase()
	if !ok {
		return errors.MissingCapability("world-object base")
	}

	// Step 6: managed code may now resolve handles and call natives.
	d.BindLookup(lookup{b})
	d.BindNatives(b.callNative)

	// Step 7: rebuild the type registry.
	types, err := d.Types()
	if err != nil {
		return errors.Wrap(errors.PhaseType, errors.KindRegistration, err, "enumerate domain types")
	}
	b.types.Rebuild(types, base)

	// Step 8: configuration flags.
	b.setStatic(domain.StaticStats, "InEditor", editor)

	b.natives.SetSink(d.NativeSink())
	b.state = StateLoaded
	b.gen = Generation{
		Number:   b.gen.Number + 1,
		Image:    imagePath,
		Digest:   digest,
		Domain:   d.Name(),
		Types:    b.types.Len(),
		LoadedAt: time.Now(),
	}
	span.SetAttributes(attribute.Int("bridge.types", b.gen.Types))

	for _, p := range b.providers {
		if perr := p.RegisterNatives(b); perr != nil {
			b.log.Error("native provider failed", zap.Error(perr))
		}
	}

	b.log.Info("domain loaded",
		zap.String("domain", d.Name()),
		zap.Uint64("generation", b.gen.Number),
		zap.Int("types", b.gen.Types),
		zap.Int("natives", b.natives.Len()),
		zap.String("digest", fmt.Sprintf("%016x", digest)))
	return nil
}

func (b *Bridge) abortLoad(ctx context.Context) {
	b.types.Clear()
	b.natives.Clear()
	b.natives.SetSink(nil)
	b.objects.Clear()
	if b.current != nil {
		b.retire(ctx, b.current)
		b.current = nil
	}
	b.state = StateUnloaded
}

// retire unregisters the natives of d and closes it. Both are best effort.
func (b *Bridge) retire(ctx context.Context, d domain.Domain) {
	defer b.guard("retire", zap.String("domain", d.Name()))
	d.UnregisterNatives()
	if err := d.Close(ctx); err != nil {
		b.log.Warn("close previous domain", zap.String("domain", d.Name()), zap.Error(err))
	}
}

func (b *Bridge) managedLog(name string) domain.LogFunc {
	log := b.log.With(zap.String("source", "managed"), zap.String("domain", name))
	return func(severity int, msg string) {
		switch {
		case severity <= domain.SeverityInfo:
			log.Info(msg)
		case severity == domain.SeverityWarn:
			log.Warn(msg)
		default:
			log.Error(msg)
		}
	}
}

func (b *Bridge) callNative(name string, args ...any) (any, error) {
	return b.natives.Invoke(name, native.Signature{}, args...)
}

type lookup struct{ b *Bridge }

func (l lookup) ByHandle(h scriptbridge.Handle) (domain.Instance, bool) {
	return l.b.GetByHandle(h)
}

func (l lookup) ByCounterpart(c scriptbridge.Counterpart) (domain.Instance, bool) {
	return l.b.GetByCounterpart(c)
}
