package shader

import (
	_ "embed"
)

// GPULightDataSource is the WGSL declaration matching LightData.Marshal.
// Shaders pull it in with `//@oxy:include light_data`.
//
//go:embed assets/light_data.wgsl
var GPULightDataSource string

// GPUCameraDataSource is the WGSL declaration matching CameraData.Marshal.
// Shaders pull it in with `//@oxy:include camera_data`.
//
//go:embed assets/camera_data.wgsl
var GPUCameraDataSource string

// GPUFullQuadSource declares the output of the full-screen quad vertex shader.
// Shaders pull it in with `//@oxy:include full_quad`.
//
//go:embed assets/full_quad.wgsl
var GPUFullQuadSource string

// GPUVertexIOSource declares the mesh vertex input and the varyings written by the mesh vertex
// shaders. Location order matches the Varying offsets used by kernels.
// Shaders pull it in with `//@oxy:include vertex_io`.
//
//go:embed assets/vertex_io.wgsl
var GPUVertexIOSource string
