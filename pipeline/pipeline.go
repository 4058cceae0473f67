/*
Package pipeline provides the feature-preparation stages that turn
datasets of raw samples into the fixed-order numeric feature vectors
tree-based regression models are trained on and predict from: a
StringIndexer that encodes categorical values as small numeric codes and
a VectorAssembler that concatenates input columns into vectors.
*/
package pipeline

/*
Error represents an error produced by a pipeline stage.
*/
type Error string

func (e Error) Error() string {
	return string(e)
}

/*
ErrUnseenCategory is the error returned when applying a fitted
StringIndexer to a sample whose value for an indexed column was never
observed during fitting, or is undefined. Depending on the indexer's
UnseenPolicy the error aborts the operation or makes the sample be
dropped.
*/
const ErrUnseenCategory = Error("sample has a category value unseen during fitting")

/*
ErrMissingValue is the error returned when assembling a sample that has
no defined value for one of the assembler's input columns.
*/
const ErrMissingValue = Error("sample has no defined value for an input column")

/*
ErrNotFitted is the error returned when applying a StringIndexer that
has not been fitted to any dataset yet.
*/
const ErrNotFitted = Error("indexer has not been fitted")

/*
UnseenPolicy declares how a fitted StringIndexer handles samples whose
value for an indexed column was not observed during fitting.
*/
type UnseenPolicy string

const (
	// SkipUnseen makes the indexer drop the offending
	// sample and keep going. Dropped samples are counted
	// and reported so runs remain observable.
	SkipUnseen UnseenPolicy = "skip"
	// FailUnseen makes the indexer abort with an error on
	// the first offending sample.
	FailUnseen UnseenPolicy = "error"
)

/*
ParseUnseenPolicy takes a policy name string and returns the
UnseenPolicy it names or an error if the name is unknown.
*/
func ParseUnseenPolicy(name string) (UnseenPolicy, error) {
	switch UnseenPolicy(name) {
	case SkipUnseen:
		return SkipUnseen, nil
	case FailUnseen:
		return FailUnseen, nil
	}
	return "", Error("unknown unseen-category policy " + name)
}
