package filters

import (
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codedoc/internal/codefilter"
	"git.home.luguber.info/inful/codedoc/internal/config"
	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
	"git.home.luguber.info/inful/codedoc/internal/metrics"
)

func TestCanonicalLanguage(t *testing.T) {
	for in, want := range map[string]string{
		"C++":    "c++",
		"cpp":    "c++",
		"CXX":    "c++",
		" c++ ":  "c++",
		"Python": "python",
		"":       "",
	} {
		assert.Equal(t, want, CanonicalLanguage(in), in)
	}
}

func TestSet_DefaultChains(t *testing.T) {
	set, err := NewSet(config.Default())
	require.NoError(t, err)

	pre, err := set.Pre("cpp", "DOXYGEN_IGNORE(int x = 5;) return 0;")
	require.NoError(t, err)
	assert.Equal(t, " return 0;", pre)

	post, err := set.Post("C++", `<span class="mh">0xabcdef_rgb</span>`)
	require.NoError(t, err)
	assert.Contains(t, post, "m-code-color")

	assert.Equal(t, []string{"strip_doc_macros"}, set.Names(StagePre, "C++"))
	assert.Equal(t, []string{"color_swatches"}, set.Names(StagePost, "c++"))
	assert.Equal(t, []string{"c++"}, set.Languages())
}

func TestSet_OtherLanguagesPassThrough(t *testing.T) {
	set, err := NewSet(config.Default())
	require.NoError(t, err)

	in := "DOXYGEN_IGNORE(x)"
	out, err := set.Pre("python", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSet_UnmatchedParenthesisAbortsChain(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	set, err := NewSet(config.Default(), WithRecorder(rec))
	require.NoError(t, err)

	out, err := set.Pre("C++", "DOXYGEN_ELLIPSIS(foo(")
	require.Error(t, err)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, codefilter.ErrUnmatchedParenthesis)
}

func TestNewSet_UnknownFilter(t *testing.T) {
	cfg := config.Default().Clone()
	cfg.CodeFilters.Pre["C++"] = []string{"strip_doc_macros", "does_not_exist"}

	_, err := NewSet(cfg)
	require.Error(t, err)
	de, ok := derrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "does_not_exist", de.Context["filter"])
}

func TestSet_ChainOrder(t *testing.T) {
	cfg := config.Default().Clone()
	cfg.CodeFilters.Pre = map[string][]string{"C++": {"strip_doc_macros", "color_swatches"}}
	cfg.CodeFilters.Post = nil

	set, err := NewSet(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"strip_doc_macros", "color_swatches"}, set.Names(StagePre, "cpp"))
	assert.Empty(t, set.Names(StagePost, "cpp"))
}
