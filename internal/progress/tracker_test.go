package progress_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/catalogsync/internal/domain"
	"github.com/phenrril/catalogsync/internal/progress"
)

func TestProject_Weights(t *testing.T) {
	cases := []struct {
		name  string
		stage domain.Stage
		img   [2]int
		vars  [2]int
		want  int
	}{
		{"half of images", domain.StageUploadingImages, [2]int{2, 4}, [2]int{0, 0}, 20},
		{"all images", domain.StageUploadingImages, [2]int{4, 4}, [2]int{0, 0}, 40},
		{"no images", domain.StageUploadingImages, [2]int{0, 0}, [2]int{0, 0}, 0},
		{"writing product", domain.StageCreatingProduct, [2]int{4, 4}, [2]int{0, 0}, 40},
		{"product saved", domain.StageCreatingVariations, [2]int{0, 0}, [2]int{0, 5}, 70},
		{"product saved many images", domain.StageCreatingVariations, [2]int{9, 9}, [2]int{0, 3}, 70},
		{"all variations", domain.StageCreatingVariations, [2]int{0, 0}, [2]int{5, 5}, 100},
		{"some variations", domain.StageCreatingVariations, [2]int{0, 0}, [2]int{1, 3}, 80},
		{"complete", domain.StageComplete, [2]int{0, 0}, [2]int{0, 0}, 100},
		{"clamped", domain.StageUploadingImages, [2]int{9, 4}, [2]int{0, 0}, 40},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := progress.Project(tc.stage, tc.img[0], tc.img[1], tc.vars[0], tc.vars[1])
			assert.Equal(t, tc.want, st.Percentage)
			assert.Equal(t, tc.stage, st.Stage)
		})
	}
}

func TestProject_Idempotent(t *testing.T) {
	a := progress.Project(domain.StageUploadingImages, 1, 3, 0, 0)
	b := progress.Project(domain.StageUploadingImages, 1, 3, 0, 0)
	assert.Equal(t, a, b)
}

func record() (*[]domain.ProgressState, progress.Observer) {
	var got []domain.ProgressState
	return &got, func(s domain.ProgressState) { got = append(got, s) }
}

func stages(states []domain.ProgressState) []domain.Stage {
	out := make([]domain.Stage, len(states))
	for i, s := range states {
		out[i] = s.Stage
	}
	return out
}

func TestTracker_FullRun(t *testing.T) {
	got, obs := record()
	tr := progress.NewTracker(obs)

	tr.StartUploads(4)
	tr.ImagesUploaded(2, 4)
	assert.Equal(t, 20, tr.State().Percentage)
	tr.ImagesUploaded(4, 4)
	tr.StartProduct()
	tr.ProductSaved(5)
	assert.Equal(t, 70, tr.State().Percentage)
	tr.VariationsCreated(5)
	assert.Equal(t, 100, tr.State().Percentage)
	tr.Complete()

	assert.Equal(t, domain.StageComplete, tr.State().Stage)
	assert.Equal(t, []int{0, 20, 40, 40, 70, 100, 100}, pcts(*got))
}

func pcts(states []domain.ProgressState) []int {
	out := make([]int, len(states))
	for i, s := range states {
		out[i] = s.Percentage
	}
	return out
}

func TestTracker_NoStageSkippedWithZeroCounts(t *testing.T) {
	got, obs := record()
	tr := progress.NewTracker(obs)

	tr.Complete()

	assert.Equal(t, []domain.Stage{
		domain.StageUploadingImages,
		domain.StageCreatingProduct,
		domain.StageCreatingVariations,
		domain.StageComplete,
	}, stages(*got))
	assert.Equal(t, 0, (*got)[0].TotalImages)
	assert.Equal(t, []int{0, 40, 70, 100}, pcts(*got))
}

func TestTracker_BackwardsTransitionIgnored(t *testing.T) {
	got, obs := record()
	tr := progress.NewTracker(obs)
	tr.StartProduct()
	n := len(*got)
	tr.StartUploads(3)
	assert.Len(t, *got, n)
	assert.Equal(t, domain.StageCreatingProduct, tr.State().Stage)
}

func TestTracker_FailFreezesProgress(t *testing.T) {
	got, obs := record()
	tr := progress.NewTracker(obs)
	tr.StartUploads(4)
	tr.ImagesUploaded(2, 4)
	tr.Fail(&domain.UploadError{Name: "a.jpg", Err: errors.New("x")})

	st := tr.State()
	assert.Equal(t, domain.StageError, st.Stage)
	assert.Equal(t, 20, st.Percentage)
	assert.Contains(t, st.Error, "a.jpg")

	n := len(*got)
	tr.StartProduct()
	tr.Complete()
	tr.Fail(errors.New("again"))
	require.Len(t, *got, n)
}
