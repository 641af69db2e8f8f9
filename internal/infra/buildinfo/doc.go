// Package buildinfo reports how the indy-cli binary was built.
//
// Release builds set the values with ldflags:
//
//	go build -ldflags "-X github.com/pradeepp88/indy-cli-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Values left unset fall back to the module version and VCS stamp the Go
// toolchain embeds in the binary.
package buildinfo
