package raster

import (
	"context"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/novvoo/go-pdfrender/pkg/scene"
)

//go:embed shaders/coverage.wgsl
var coverageShaderWGSL string

// gpuFenceTimeout bounds the wait for a coverage dispatch.
const gpuFenceTimeout = 5 * time.Second

// Buffer layouts matching the Config and Edge structs in coverage.wgsl.
const (
	gpuConfigSize = 32
	gpuEdgeStride = 32
)

// GPU is the compute renderer. Path coverage is dispatched to a compute
// device and read back; compositing runs on the CPU through the same
// engine as Software, so both backends agree to anti-aliasing tolerance.
//
// Construction never fails: when no device can be opened, or a dispatch
// errors later, the renderer permanently falls back to the scanline
// engine and keeps producing correct output. UsingGPU reports which path
// is live.
type GPU struct {
	mu sync.Mutex

	instance   hal.Instance
	device     hal.Device
	queue      hal.Queue
	ownsDevice bool

	shaderModule   hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	pipeline       hal.ComputePipeline
	spirv          []uint32

	ready   bool
	initErr error
}

// NewGPU creates the compute renderer. A nil provider opens a standalone
// device; otherwise the provider's shared device is used. The provider
// must expose HalDevice() any and HalQueue() any returning the HAL device
// and queue.
func NewGPU(provider gpucontext.DeviceProvider) *GPU {
	g := &GPU{}
	var err error
	if provider == nil {
		err = g.openDevice()
	} else {
		err = g.adoptDevice(provider)
	}
	if err != nil {
		g.initErr = err
		return g
	}
	if err := g.createPipeline(); err != nil {
		g.destroyPipeline()
		if g.ownsDevice {
			g.device.Destroy()
			if g.instance != nil {
				g.instance.Destroy()
			}
		}
		g.device = nil
		g.queue = nil
		g.instance = nil
		g.initErr = err
		return g
	}
	g.ready = true
	return g
}

func (g *GPU) openDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("raster: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("raster: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return errors.New("raster: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("raster: open device: %w", err)
	}
	g.instance = instance
	g.device = openDev.Device
	g.queue = openDev.Queue
	g.ownsDevice = true
	return nil
}

func (g *GPU) adoptDevice(provider gpucontext.DeviceProvider) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return errors.New("raster: device provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return errors.New("raster: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return errors.New("raster: provider HalQueue is not hal.Queue")
	}
	g.device = device
	g.queue = queue
	return nil
}

func (g *GPU) createPipeline() error {
	spirvBytes, err := naga.Compile(coverageShaderWGSL)
	if err != nil {
		return fmt.Errorf("raster: compile coverage shader: %w", err)
	}
	g.spirv = make([]uint32, len(spirvBytes)/4)
	for i := range g.spirv {
		g.spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	shaderModule, err := g.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "coverage_shader",
		Source: hal.ShaderSource{SPIRV: g.spirv},
	})
	if err != nil {
		return fmt.Errorf("raster: create shader module: %w", err)
	}
	g.shaderModule = shaderModule

	bindLayout, err := g.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "coverage_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: gpuConfigSize,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("raster: create bind group layout: %w", err)
	}
	g.bindLayout = bindLayout

	pipelineLayout, err := g.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "coverage_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{g.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("raster: create pipeline layout: %w", err)
	}
	g.pipelineLayout = pipelineLayout

	pipeline, err := g.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "coverage_pipeline",
		Layout: g.pipelineLayout,
		Compute: hal.ComputeState{
			Module:     g.shaderModule,
			EntryPoint: "cs_coverage",
		},
	})
	if err != nil {
		return fmt.Errorf("raster: create compute pipeline: %w", err)
	}
	g.pipeline = pipeline
	return nil
}

func (g *GPU) destroyPipeline() {
	if g.device == nil {
		return
	}
	if g.pipeline != nil {
		g.device.DestroyComputePipeline(g.pipeline)
		g.pipeline = nil
	}
	if g.pipelineLayout != nil {
		g.device.DestroyPipelineLayout(g.pipelineLayout)
		g.pipelineLayout = nil
	}
	if g.bindLayout != nil {
		g.device.DestroyBindGroupLayout(g.bindLayout)
		g.bindLayout = nil
	}
	if g.shaderModule != nil {
		g.device.DestroyShaderModule(g.shaderModule)
		g.shaderModule = nil
	}
}

func (*GPU) backend() string { return "gpu" }

// Rasterize implements Renderer.
func (g *GPU) Rasterize(ctx context.Context, sc *scene.Scene, scale float64, vp Viewport) (*Pixmap, error) {
	return rasterize(ctx, g, sc, scale, vp)
}

// UsingGPU reports whether the compute device is live. False means every
// scene composites entirely on the CPU.
func (g *GPU) UsingGPU() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

// InitError returns the error that disabled the compute device, nil when
// the device is live.
func (g *GPU) InitError() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initErr
}

// Close implements Renderer. Shared devices are released, owned devices
// destroyed.
func (g *GPU) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.destroyPipeline()
	if g.ownsDevice {
		if g.device != nil {
			g.device.Destroy()
		}
		if g.instance != nil {
			g.instance.Destroy()
		}
	}
	g.device = nil
	g.queue = nil
	g.instance = nil
	g.ready = false
	return nil
}

// fillCoverage implements coverageSource. Dispatch errors disable the
// device and fall back to the scanline engine, so a lost device degrades
// to CPU rendering instead of failing the page.
func (g *GPU) fillCoverage(l *edgeList, limit image.Rectangle, rule scene.FillRule) *mask {
	g.mu.Lock()
	if !g.ready {
		g.mu.Unlock()
		return fillEdges(l, limit, rule)
	}
	m, err := g.dispatch(l, limit, rule)
	if err != nil {
		g.ready = false
		g.initErr = err
		g.mu.Unlock()
		return fillEdges(l, limit, rule)
	}
	g.mu.Unlock()
	return m
}

func (g *GPU) dispatch(l *edgeList, limit image.Rectangle, rule scene.FillRule) (*mask, error) {
	if len(l.edges) == 0 {
		return nil, nil
	}
	rect := l.bounds().Intersect(limit)
	if rect.Empty() {
		return nil, nil
	}
	w := rect.Dx()
	h := rect.Dy()
	covSize := uint64(w*h) * 4
	edgeBytes := packEdges(l.edges, rect.Min)
	cfgBytes := packConfig(uint32(w), uint32(h), uint32(len(l.edges)), rule)

	cfgBuf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "coverage_config", Size: gpuConfigSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("raster: create config buffer: %w", err)
	}
	defer g.device.DestroyBuffer(cfgBuf)

	edgeBuf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "coverage_edges", Size: uint64(len(edgeBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("raster: create edge buffer: %w", err)
	}
	defer g.device.DestroyBuffer(edgeBuf)

	covBuf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "coverage_out", Size: covSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("raster: create coverage buffer: %w", err)
	}
	defer g.device.DestroyBuffer(covBuf)

	stagingBuf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "coverage_staging", Size: covSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("raster: create staging buffer: %w", err)
	}
	defer g.device.DestroyBuffer(stagingBuf)

	g.queue.WriteBuffer(cfgBuf, 0, cfgBytes)
	g.queue.WriteBuffer(edgeBuf, 0, edgeBytes)

	bg, err := g.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "coverage_bind", Layout: g.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: cfgBuf.NativeHandle(), Offset: 0, Size: gpuConfigSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: edgeBuf.NativeHandle(), Offset: 0, Size: uint64(len(edgeBytes))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: covBuf.NativeHandle(), Offset: 0, Size: covSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("raster: create bind group: %w", err)
	}
	defer g.device.DestroyBindGroup(bg)

	encoder, err := g.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "coverage"})
	if err != nil {
		return nil, fmt.Errorf("raster: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("coverage"); err != nil {
		return nil, fmt.Errorf("raster: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "coverage_pass"})
	pass.SetPipeline(g.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch((uint32(w)+7)/8, (uint32(h)+7)/8, 1)
	pass.End()

	encoder.CopyBufferToBuffer(covBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: covSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("raster: end encoding: %w", err)
	}
	defer g.device.FreeCommandBuffer(cmdBuf)

	fence, err := g.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("raster: create fence: %w", err)
	}
	defer g.device.DestroyFence(fence)
	if err := g.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("raster: submit: %w", err)
	}
	ok, err := g.device.Wait(fence, 1, gpuFenceTimeout)
	if err != nil {
		return nil, fmt.Errorf("raster: wait for GPU: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("raster: GPU timeout after %v", gpuFenceTimeout)
	}

	readback := make([]byte, covSize)
	if err := g.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("raster: coverage readback: %w", err)
	}

	m := &mask{rect: rect, cov: make([]uint8, w*h)}
	for i := range m.cov {
		m.cov[i] = readback[i*4]
	}
	return m, nil
}

// packEdges serializes edges in mask-local coordinates, matching the Edge
// struct in coverage.wgsl.
func packEdges(edges []edge, origin image.Point) []byte {
	buf := make([]byte, len(edges)*gpuEdgeStride)
	le := binary.LittleEndian
	ox := float64(origin.X)
	oy := float64(origin.Y)
	for i, e := range edges {
		o := i * gpuEdgeStride
		le.PutUint32(buf[o:o+4], math.Float32bits(float32(e.x0-ox)))
		le.PutUint32(buf[o+4:o+8], math.Float32bits(float32(e.y0-oy)))
		le.PutUint32(buf[o+8:o+12], math.Float32bits(float32(e.x1-ox)))
		le.PutUint32(buf[o+12:o+16], math.Float32bits(float32(e.y1-oy)))
		le.PutUint32(buf[o+16:o+20], math.Float32bits(float32(e.sign)))
	}
	return buf
}

// packConfig serializes the dispatch uniform, matching the Config struct
// in coverage.wgsl.
func packConfig(w, h, edgeCount uint32, rule scene.FillRule) []byte {
	buf := make([]byte, gpuConfigSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], w)
	le.PutUint32(buf[4:8], h)
	le.PutUint32(buf[8:12], edgeCount)
	var r uint32
	if rule == scene.FillEvenOdd {
		r = 1
	}
	le.PutUint32(buf[12:16], r)
	return buf
}
