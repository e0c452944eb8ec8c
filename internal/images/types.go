// SPDX-License-Identifier: MPL-2.0

package images

import (
	digest "github.com/opencontainers/go-digest"
)

const shortIDLength = 12

type (
	// Summary is one entry of the image list.
	Summary struct {
		ID          digest.Digest     `json:"Id" yaml:"Id" toml:"Id"`
		ParentID    string            `json:"ParentId" yaml:"ParentId" toml:"ParentId"`
		RepoTags    []string          `json:"RepoTags" yaml:"RepoTags" toml:"RepoTags"`
		RepoDigests []string          `json:"RepoDigests" yaml:"RepoDigests" toml:"RepoDigests"`
		Created     int64             `json:"Created" yaml:"Created" toml:"Created"`
		Size        int64             `json:"Size" yaml:"Size" toml:"Size"`
		SharedSize  int64             `json:"SharedSize" yaml:"SharedSize" toml:"SharedSize"`
		Labels      map[string]string `json:"Labels,omitempty" yaml:"Labels,omitempty" toml:"Labels,omitempty"`
		Containers  int64             `json:"Containers" yaml:"Containers" toml:"Containers"`
	}

	// Details is the full inspection record of one image.
	Details struct {
		ID              digest.Digest    `json:"Id" yaml:"Id" toml:"Id"`
		RepoTags        []string         `json:"RepoTags" yaml:"RepoTags" toml:"RepoTags"`
		RepoDigests     []string         `json:"RepoDigests" yaml:"RepoDigests" toml:"RepoDigests"`
		Parent          string           `json:"Parent" yaml:"Parent" toml:"Parent"`
		Comment         string           `json:"Comment" yaml:"Comment" toml:"Comment"`
		Created         string           `json:"Created" yaml:"Created" toml:"Created"`
		Container       string           `json:"Container,omitempty" yaml:"Container,omitempty" toml:"Container,omitempty"`
		ContainerConfig *ContainerConfig `json:"ContainerConfig,omitempty" yaml:"ContainerConfig,omitempty" toml:"ContainerConfig,omitempty"`
		DockerVersion   string           `json:"DockerVersion,omitempty" yaml:"DockerVersion,omitempty" toml:"DockerVersion,omitempty"`
		Author          string           `json:"Author,omitempty" yaml:"Author,omitempty" toml:"Author,omitempty"`
		Config          *ContainerConfig `json:"Config,omitempty" yaml:"Config,omitempty" toml:"Config,omitempty"`
		Architecture    string           `json:"Architecture" yaml:"Architecture" toml:"Architecture"`
		Variant         string           `json:"Variant,omitempty" yaml:"Variant,omitempty" toml:"Variant,omitempty"`
		Os              string           `json:"Os" yaml:"Os" toml:"Os"`
		OsVersion       string           `json:"OsVersion,omitempty" yaml:"OsVersion,omitempty" toml:"OsVersion,omitempty"`
		Size            int64            `json:"Size" yaml:"Size" toml:"Size"`
		VirtualSize     int64            `json:"VirtualSize,omitempty" yaml:"VirtualSize,omitempty" toml:"VirtualSize,omitempty"`
		RootFS          *RootFS          `json:"RootFS,omitempty" yaml:"RootFS,omitempty" toml:"RootFS,omitempty"`
	}

	// ContainerConfig is the run configuration recorded in an image.
	ContainerConfig struct {
		Hostname        string            `json:"Hostname" yaml:"Hostname" toml:"Hostname"`
		Domainname      string            `json:"Domainname" yaml:"Domainname" toml:"Domainname"`
		User            string            `json:"User" yaml:"User" toml:"User"`
		AttachStdin     bool              `json:"AttachStdin" yaml:"AttachStdin" toml:"AttachStdin"`
		AttachStdout    bool              `json:"AttachStdout" yaml:"AttachStdout" toml:"AttachStdout"`
		AttachStderr    bool              `json:"AttachStderr" yaml:"AttachStderr" toml:"AttachStderr"`
		ExposedPorts    map[string]any    `json:"ExposedPorts,omitempty" yaml:"ExposedPorts,omitempty" toml:"ExposedPorts,omitempty"`
		Tty             bool              `json:"Tty" yaml:"Tty" toml:"Tty"`
		OpenStdin       bool              `json:"OpenStdin" yaml:"OpenStdin" toml:"OpenStdin"`
		StdinOnce       bool              `json:"StdinOnce" yaml:"StdinOnce" toml:"StdinOnce"`
		Env             []string          `json:"Env" yaml:"Env" toml:"Env"`
		Cmd             []string          `json:"Cmd" yaml:"Cmd" toml:"Cmd"`
		Healthcheck     *HealthConfig     `json:"Healthcheck,omitempty" yaml:"Healthcheck,omitempty" toml:"Healthcheck,omitempty"`
		ArgsEscaped     bool              `json:"ArgsEscaped,omitempty" yaml:"ArgsEscaped,omitempty" toml:"ArgsEscaped,omitempty"`
		WorkingDir      string            `json:"WorkingDir" yaml:"WorkingDir" toml:"WorkingDir"`
		Entrypoint      []string          `json:"Entrypoint" yaml:"Entrypoint" toml:"Entrypoint"`
		NetworkDisabled bool              `json:"NetworkDisabled,omitempty" yaml:"NetworkDisabled,omitempty" toml:"NetworkDisabled,omitempty"`
		MacAddress      string            `json:"MacAddress,omitempty" yaml:"MacAddress,omitempty" toml:"MacAddress,omitempty"`
		OnBuild         []string          `json:"OnBuild" yaml:"OnBuild" toml:"OnBuild"`
		Labels          map[string]string `json:"Labels" yaml:"Labels" toml:"Labels"`
		StopSignal      string            `json:"StopSignal,omitempty" yaml:"StopSignal,omitempty" toml:"StopSignal,omitempty"`
	}

	// HealthConfig is an image healthcheck. Durations are in nanoseconds.
	HealthConfig struct {
		Test        []string `json:"Test" yaml:"Test" toml:"Test"`
		Interval    int64    `json:"Interval,omitempty" yaml:"Interval,omitempty" toml:"Interval,omitempty"`
		Timeout     int64    `json:"Timeout,omitempty" yaml:"Timeout,omitempty" toml:"Timeout,omitempty"`
		Retries     int      `json:"Retries,omitempty" yaml:"Retries,omitempty" toml:"Retries,omitempty"`
		StartPeriod int64    `json:"StartPeriod,omitempty" yaml:"StartPeriod,omitempty" toml:"StartPeriod,omitempty"`
	}

	// RootFS lists the layers of an image.
	RootFS struct {
		Type   string          `json:"Type" yaml:"Type" toml:"Type"`
		Layers []digest.Digest `json:"Layers,omitempty" yaml:"Layers,omitempty" toml:"Layers,omitempty"`
	}

	// HistoryEntry is one layer in an image's history. ID is "<missing>" for
	// layers built elsewhere.
	HistoryEntry struct {
		ID        string   `json:"Id" yaml:"Id" toml:"Id"`
		Created   int64    `json:"Created" yaml:"Created" toml:"Created"`
		CreatedBy string   `json:"CreatedBy" yaml:"CreatedBy" toml:"CreatedBy"`
		Tags      []string `json:"Tags" yaml:"Tags" toml:"Tags"`
		Size      int64    `json:"Size" yaml:"Size" toml:"Size"`
		Comment   string   `json:"Comment" yaml:"Comment" toml:"Comment"`
	}

	// DeleteResponse reports one reference untagged or one image deleted.
	DeleteResponse struct {
		Untagged string `json:"Untagged,omitempty" yaml:"Untagged,omitempty" toml:"Untagged,omitempty"`
		Deleted  string `json:"Deleted,omitempty" yaml:"Deleted,omitempty" toml:"Deleted,omitempty"`
	}

	// SearchResult is one registry search hit.
	SearchResult struct {
		Name        string `json:"name" yaml:"name" toml:"name"`
		Description string `json:"description" yaml:"description" toml:"description"`
		IsOfficial  bool   `json:"is_official" yaml:"is_official" toml:"is_official"`
		IsAutomated bool   `json:"is_automated" yaml:"is_automated" toml:"is_automated"`
		StarCount   int    `json:"star_count" yaml:"star_count" toml:"star_count"`
	}
)

// ShortID returns the first 12 hex characters of a content digest, the form
// engines print in listings. Values that are not valid digests are returned
// truncated but otherwise unchanged.
func ShortID(id digest.Digest) string {
	s := string(id)
	if id.Validate() == nil {
		s = id.Encoded()
	}
	if len(s) > shortIDLength {
		return s[:shortIDLength]
	}
	return s
}
