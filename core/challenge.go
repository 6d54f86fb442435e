package core

import (
	"encoding/base64"
	"fmt"

	utils "grokparser/utils"
)

const (
	AnimationVariants = 4
	variantByteIndex  = 5
)

// AnimationVariant selects one of the loading-x-anim-N svg paths.
type AnimationVariant int

func (v AnimationVariant) String() string {
	return fmt.Sprintf("loading-x-anim-%d", int(v))
}

// VariantFromToken derives the animation variant from a decoded token.
func VariantFromToken(decoded []byte) (AnimationVariant, error) {
	if len(decoded) <= variantByteIndex {
		return 0, fmt.Errorf("token decodes to %d bytes, need at least %d", len(decoded), variantByteIndex+1)
	}
	return AnimationVariant(int(decoded[variantByteIndex]) % AnimationVariants), nil
}

type ChallengeExtractor struct {
	Patterns PatternExtractor
	Tables   *NumericTableResolver
}

// ExtractToken reads the verification token of the named meta field and the
// animation variant it selects.
func (e *ChallengeExtractor) ExtractToken(html, field string) (string, AnimationVariant, error) {
	token, ok := utils.Between(html, `"name":"`+field+`","content":"`, `"`)
	if !ok {
		token, ok = utils.MetaContent(html, field)
	}
	if !ok || token == "" {
		return "", 0, extractionError(ErrMissingField, field, utils.Snippet(html, snippetSize), nil)
	}

	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		if decoded, err = base64.RawStdEncoding.DecodeString(token); err != nil {
			return "", 0, extractionError(ErrDecode, field, token, err)
		}
	}

	variant, err := VariantFromToken(decoded)
	if err != nil {
		return "", 0, extractionError(ErrDecode, field, token, err)
	}
	return token, variant, nil
}

// ExtractPathDatum returns the variant-th long svg path of the page. Callers
// are expected to refetch the page when this fails.
func (e *ChallengeExtractor) ExtractPathDatum(html string, variant AnimationVariant) (string, error) {
	paths := e.Patterns.PathData(html)
	if int(variant) < 0 || int(variant) >= len(paths) {
		return "", extractionError(ErrIndexOutOfRange, variant.String(), utils.Snippet(html, snippetSize),
			fmt.Errorf("%d path datums on page", len(paths)))
	}
	return paths[variant], nil
}

// Parse runs the whole challenge step: token, variant, path datum, and when
// scriptID is set the numeric table of that bundle.
func (e *ChallengeExtractor) Parse(html, field, scriptID string) (utils.ChallengeData, error) {
	token, variant, err := e.ExtractToken(html, field)
	if err != nil {
		return utils.ChallengeData{}, err
	}

	path, err := e.ExtractPathDatum(html, variant)
	if err != nil {
		return utils.ChallengeData{}, err
	}

	data := utils.ChallengeData{
		Token:    token,
		Variant:  int(variant),
		Anim:     variant.String(),
		PathData: path,
	}
	if scriptID == "" {
		return data, nil
	}

	location, err := e.Tables.ResolveLocation(html, scriptID)
	if err != nil {
		return utils.ChallengeData{}, err
	}
	numbers, err := e.Tables.ResolveTable(location)
	if err != nil {
		return utils.ChallengeData{}, err
	}

	data.Location = location
	data.Numbers = numbers
	return data, nil
}
