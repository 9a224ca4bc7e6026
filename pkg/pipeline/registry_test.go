package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyblish/pyblish-minbender/pkg/config"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default("/projects/hulk")
	assert.Equal(t, "/projects/hulk", r.Root())
	assert.Equal(t, []string{".ma", ".mb", ".abc"}, r.Formats())

	var names []string
	for _, f := range r.Families() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{FamilyModel, FamilyRig, FamilyAnimation}, names)

	var keys []string
	for _, d := range r.Data() {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{"id", "name", "subset", "family"}, keys)
}

func TestFamilyLookupIgnoresCase(t *testing.T) {
	r := Default("")
	f, ok := r.Family("Mindbender.RIG")
	require.True(t, ok)
	assert.Equal(t, FamilyRig, f.Name)
	assert.Equal(t, LoaderRig, f.Loader)

	_, ok = r.Family("mindbender.look")
	assert.False(t, ok)
}

func TestRegisterAndDeregister(t *testing.T) {
	r := NewRegistry()

	r.RegisterFormat("obj")
	r.RegisterFormat(".obj")
	r.RegisterFormat(" ")
	assert.Equal(t, []string{".obj"}, r.Formats())
	assert.True(t, r.HasFormat("obj"))
	r.DeregisterFormat(".obj")
	assert.Empty(t, r.Formats())

	r.RegisterFamily(Family{Name: "mindbender.lookdev"})
	f, ok := r.Family("mindbender.lookdev")
	require.True(t, ok)
	assert.Equal(t, LoaderGeneric, f.Loader)

	r.RegisterFamily(Family{Name: "MINDBENDER.LOOKDEV", Loader: "lookdev"})
	require.Len(t, r.Families(), 1)
	f, _ = r.Family("mindbender.lookdev")
	assert.Equal(t, "lookdev", f.Loader)

	r.DeregisterFamily("mindbender.lookdev")
	assert.Empty(t, r.Families())

	r.RegisterData("id", "a", "")
	r.RegisterData("id", "b", "replaced")
	require.Len(t, r.Data(), 1)
	assert.Equal(t, "b", r.Data()[0].Value)
	r.DeregisterData("id")
	assert.Empty(t, r.Data())
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Root = "/projects/bat"
	cfg.Author = "marcus"
	cfg.Formats = []string{".fbx"}
	cfg.Families = []config.FamilyConfig{
		{Name: "mindbender.lookdev", Loader: "lookdev", Data: []config.DataConfig{
			{Key: "shaderSet", Value: "{name}Shaders", Help: "Shading group"},
			{Key: "a", Value: 1},
		}},
		{Name: "mindbender.rig", Help: "Studio rig"},
	}

	r := FromConfig(cfg)
	assert.Equal(t, "/projects/bat", r.Root())
	assert.Equal(t, "marcus", r.Author())
	assert.Equal(t, []string{".fbx"}, r.Formats())

	look, ok := r.Family("mindbender.lookdev")
	require.True(t, ok)
	require.Len(t, look.Data, 2)
	assert.Equal(t, DataEntry{Key: "shaderSet", Value: "{name}Shaders", Help: "Shading group"}, look.Data[0])
	assert.Equal(t, "a", look.Data[1].Key)

	rig, _ := r.Family("mindbender.rig")
	assert.Equal(t, "Studio rig", rig.Help)
	assert.Equal(t, LoaderGeneric, rig.Loader)
	assert.Len(t, r.Families(), 4)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := Default("")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.RegisterFormat(".obj")
			r.DeregisterFormat(".obj")
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Family(FamilyModel)
			_ = r.Formats()
		}()
	}
	wg.Wait()
	assert.False(t, r.HasFormat(".obj"))
}

func TestResolveAuthorOverride(t *testing.T) {
	assert.Equal(t, "marcus", ResolveAuthor("marcus", ""))
	assert.NotEmpty(t, ResolveAuthor("", t.TempDir()))
}
