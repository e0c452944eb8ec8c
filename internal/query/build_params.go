// SPDX-License-Identifier: MPL-2.0

package query

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dockerino/dockerino/internal/engineapi"
)

// Build option keys, as sent on the wire.
const (
	ParamDockerfile  BuildParamKey = "dockerfile"
	ParamTag         BuildParamKey = "t"
	ParamExtraHosts  BuildParamKey = "extrahosts"
	ParamRemote      BuildParamKey = "remote"
	ParamQuiet       BuildParamKey = "q"
	ParamNoCache     BuildParamKey = "nocache"
	ParamCacheFrom   BuildParamKey = "cachefrom"
	ParamPull        BuildParamKey = "pull"
	ParamRemove      BuildParamKey = "rm"
	ParamForceRemove BuildParamKey = "forcerm"
	ParamMemory      BuildParamKey = "memory"
	ParamMemorySwap  BuildParamKey = "memswap"
	ParamCPUShares   BuildParamKey = "cpushares"
	ParamCPUSetCPUs  BuildParamKey = "cpusetcpus"
	ParamCPUPeriod   BuildParamKey = "cpuperiod"
	ParamCPUQuota    BuildParamKey = "cpuquota"
	ParamBuildArgs   BuildParamKey = "buildargs"
	ParamShmSize     BuildParamKey = "shmsize"
	ParamSquash      BuildParamKey = "squash"
	ParamLabels      BuildParamKey = "labels"
	ParamNetworkMode BuildParamKey = "networkmode"
	ParamPlatform    BuildParamKey = "platform"
	ParamTarget      BuildParamKey = "target"
	ParamOutputs     BuildParamKey = "outputs"
)

var buildParamKeys = []BuildParamKey{
	ParamDockerfile, ParamTag, ParamExtraHosts, ParamRemote, ParamQuiet,
	ParamNoCache, ParamCacheFrom, ParamPull, ParamRemove, ParamForceRemove,
	ParamMemory, ParamMemorySwap, ParamCPUShares, ParamCPUSetCPUs, ParamCPUPeriod,
	ParamCPUQuota, ParamBuildArgs, ParamShmSize, ParamSquash, ParamLabels,
	ParamNetworkMode, ParamPlatform, ParamTarget, ParamOutputs,
}

type (
	// BuildParamKey names an image build option.
	BuildParamKey string

	// BuildParam is one encoded key/value pair.
	BuildParam struct {
		Key   BuildParamKey
		Value string
	}

	// BuildParams is an immutable, ordered set of build options, one scalar
	// string per key. The zero value is empty.
	BuildParams struct {
		params []BuildParam
	}

	// BuildParamsBuilder accumulates build options in insertion order.
	// Setting a key again replaces its value in place.
	BuildParamsBuilder struct {
		params []BuildParam
	}
)

// BuildParamKeys returns the build option vocabulary.
func BuildParamKeys() []BuildParamKey { return slices.Clone(buildParamKeys) }

// IsValid reports whether k belongs to the build option vocabulary.
func (k BuildParamKey) IsValid() (bool, []error) {
	if slices.Contains(buildParamKeys, k) {
		return true, nil
	}
	return false, []error{engineapi.NewError(engineapi.KindSerialization, "validate build parameter", fmt.Errorf("unknown build parameter %q", string(k)))}
}

// String returns the wire name of the key.
func (k BuildParamKey) String() string { return string(k) }

// NewBuildParamsBuilder returns an empty builder.
func NewBuildParamsBuilder() *BuildParamsBuilder {
	return &BuildParamsBuilder{}
}

// Set stores value for key, keeping the key's original position if it was
// already set.
func (b *BuildParamsBuilder) Set(key BuildParamKey, value string) *BuildParamsBuilder {
	for i := range b.params {
		if b.params[i].Key == key {
			b.params[i].Value = value
			return b
		}
	}
	b.params = append(b.params, BuildParam{Key: key, Value: value})
	return b
}

// Dockerfile sets the Dockerfile path inside the build context.
func (b *BuildParamsBuilder) Dockerfile(path string) *BuildParamsBuilder {
	return b.Set(ParamDockerfile, path)
}

// Tag sets the name:tag applied to the result.
func (b *BuildParamsBuilder) Tag(tag string) *BuildParamsBuilder { return b.Set(ParamTag, tag) }

// ExtraHosts sets extra /etc/hosts entries.
func (b *BuildParamsBuilder) ExtraHosts(hosts string) *BuildParamsBuilder {
	return b.Set(ParamExtraHosts, hosts)
}

// Remote sets a remote build context (git URL or tarball URL).
func (b *BuildParamsBuilder) Remote(remote string) *BuildParamsBuilder {
	return b.Set(ParamRemote, remote)
}

// Quiet suppresses verbose build output.
func (b *BuildParamsBuilder) Quiet(quiet bool) *BuildParamsBuilder {
	return b.Set(ParamQuiet, strconv.FormatBool(quiet))
}

// NoCache disables the build cache.
func (b *BuildParamsBuilder) NoCache(noCache bool) *BuildParamsBuilder {
	return b.Set(ParamNoCache, strconv.FormatBool(noCache))
}

// CacheFrom sets the images used as cache sources, as a JSON array.
func (b *BuildParamsBuilder) CacheFrom(images ...string) *BuildParamsBuilder {
	return b.Set(ParamCacheFrom, jsonText(nonNil(images)))
}

// Pull attempts to pull newer base images.
func (b *BuildParamsBuilder) Pull(pull bool) *BuildParamsBuilder {
	return b.Set(ParamPull, strconv.FormatBool(pull))
}

// Remove removes intermediate containers after a successful build.
func (b *BuildParamsBuilder) Remove(remove bool) *BuildParamsBuilder {
	return b.Set(ParamRemove, strconv.FormatBool(remove))
}

// ForceRemove always removes intermediate containers.
func (b *BuildParamsBuilder) ForceRemove(force bool) *BuildParamsBuilder {
	return b.Set(ParamForceRemove, strconv.FormatBool(force))
}

// Memory sets the memory limit in bytes.
func (b *BuildParamsBuilder) Memory(bytes int64) *BuildParamsBuilder {
	return b.Set(ParamMemory, strconv.FormatInt(bytes, 10))
}

// MemorySwap sets total memory plus swap in bytes; -1 disables swap.
func (b *BuildParamsBuilder) MemorySwap(bytes int64) *BuildParamsBuilder {
	return b.Set(ParamMemorySwap, strconv.FormatInt(bytes, 10))
}

// CPUShares sets the relative CPU weight.
func (b *BuildParamsBuilder) CPUShares(weight int64) *BuildParamsBuilder {
	return b.Set(ParamCPUShares, strconv.FormatInt(weight, 10))
}

// CPUSetCPUs pins the build to CPUs, e.g. "0-3" or "0,1".
func (b *BuildParamsBuilder) CPUSetCPUs(cpus string) *BuildParamsBuilder {
	return b.Set(ParamCPUSetCPUs, cpus)
}

// CPUPeriod sets the CPU CFS period in microseconds.
func (b *BuildParamsBuilder) CPUPeriod(period int64) *BuildParamsBuilder {
	return b.Set(ParamCPUPeriod, strconv.FormatInt(period, 10))
}

// CPUQuota sets the CPU CFS quota in microseconds.
func (b *BuildParamsBuilder) CPUQuota(quota int64) *BuildParamsBuilder {
	return b.Set(ParamCPUQuota, strconv.FormatInt(quota, 10))
}

// BuildArgs sets build-time variables, as a JSON object.
func (b *BuildParamsBuilder) BuildArgs(args map[string]string) *BuildParamsBuilder {
	return b.Set(ParamBuildArgs, jsonText(nonNilMap(args)))
}

// ShmSize sets the size of /dev/shm in bytes.
func (b *BuildParamsBuilder) ShmSize(bytes int64) *BuildParamsBuilder {
	return b.Set(ParamShmSize, strconv.FormatInt(bytes, 10))
}

// Squash squashes the resulting layers into one.
func (b *BuildParamsBuilder) Squash(squash bool) *BuildParamsBuilder {
	return b.Set(ParamSquash, strconv.FormatBool(squash))
}

// Labels sets labels on the resulting image, as a JSON object.
func (b *BuildParamsBuilder) Labels(labels map[string]string) *BuildParamsBuilder {
	return b.Set(ParamLabels, jsonText(nonNilMap(labels)))
}

// NetworkMode sets the network mode for RUN instructions.
func (b *BuildParamsBuilder) NetworkMode(mode string) *BuildParamsBuilder {
	return b.Set(ParamNetworkMode, mode)
}

// Platform sets the target platform, e.g. "linux/amd64".
func (b *BuildParamsBuilder) Platform(platform string) *BuildParamsBuilder {
	return b.Set(ParamPlatform, platform)
}

// Target sets the multi-stage build target.
func (b *BuildParamsBuilder) Target(target string) *BuildParamsBuilder {
	return b.Set(ParamTarget, target)
}

// Outputs sets the BuildKit output configuration.
func (b *BuildParamsBuilder) Outputs(outputs string) *BuildParamsBuilder {
	return b.Set(ParamOutputs, outputs)
}

// Build returns an independent snapshot in insertion order.
func (b *BuildParamsBuilder) Build() BuildParams {
	return BuildParams{params: slices.Clone(b.params)}
}

// Len returns the number of keys.
func (p BuildParams) Len() int { return len(p.params) }

// Get returns the value for key.
func (p BuildParams) Get(key BuildParamKey) (string, bool) {
	for _, bp := range p.params {
		if bp.Key == key {
			return bp.Value, true
		}
	}
	return "", false
}

// All returns a copy of the pairs in insertion order.
func (p BuildParams) All() []BuildParam { return slices.Clone(p.params) }

// Encode renders the parameters as key=value pairs joined by '&', in
// insertion order.
func (p BuildParams) Encode() (string, error) { return EncodeBuildParams(p) }

// EncodeBuildParams joins p as key=value&key=value. Values are written
// verbatim except for characters that would change the structure of the
// query ("%", "&", "=", "#", "+", ";", space, control and non-ASCII bytes),
// which are percent-encoded. Unknown keys and values that are not valid UTF-8
// fail with a serialization error.
func EncodeBuildParams(p BuildParams) (string, error) {
	var sb strings.Builder
	for i, bp := range p.params {
		if valid, errs := bp.Key.IsValid(); !valid {
			return "", errs[0]
		}
		if !utf8.ValidString(bp.Value) {
			return "", engineapi.NewError(engineapi.KindSerialization, "encode build parameters", fmt.Errorf("value for %q is not valid UTF-8", string(bp.Key)))
		}
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(string(bp.Key))
		sb.WriteByte('=')
		escapeBuildValue(&sb, bp.Value)
	}
	return sb.String(), nil
}

// DecodeBuildParams splits an encoded string back into ordered pairs.
func DecodeBuildParams(encoded string) (BuildParams, error) {
	if encoded == "" {
		return BuildParams{}, nil
	}
	b := NewBuildParamsBuilder()
	for seg := range strings.SplitSeq(encoded, "&") {
		key, value, ok := strings.Cut(seg, "=")
		if !ok {
			return BuildParams{}, engineapi.NewError(engineapi.KindSerialization, "decode build parameters", fmt.Errorf("segment %q is not key=value", seg))
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return BuildParams{}, engineapi.NewError(engineapi.KindSerialization, "decode build parameters", err)
		}
		b.Set(BuildParamKey(key), v)
	}
	return b.Build(), nil
}

const upperhex = "0123456789ABCDEF"

func escapeBuildValue(sb *strings.Builder, v string) {
	for i := 0; i < len(v); i++ {
		c := v[i]
		if !needsBuildEscape(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&0x0f])
	}
}

func needsBuildEscape(c byte) bool {
	if c <= ' ' || c >= 0x7f {
		return true
	}
	switch c {
	case '%', '&', '=', '#', '+', ';':
		return true
	}
	return false
}

// jsonText marshals values whose types always encode.
func jsonText(v any) string {
	data, _ := marshalJSON(v)
	return string(data)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m)
}
