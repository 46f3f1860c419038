package importer

import (
	"context"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	applog "foodgram/internal/log"
)

// DefaultUnit is used for ingredients reported without a unit.
const DefaultUnit = "шт"

// Translator converts text into the language the site is served in.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Parser turns raw API recipes into translated RecipeRecords.
type Parser struct {
	translator Translator
}

// NewParser returns a Parser using translator for every text field.
func NewParser(translator Translator) *Parser {
	return &Parser{translator: translator}
}

type fieldExtractor struct {
	field   string
	extract func(ctx context.Context, t *batchTranslator, raw RawRecipe, record *RecipeRecord) error
}

// recordFields fills a RecipeRecord one field at a time, in order.
var recordFields = []fieldExtractor{
	{field: "name", extract: extractName},
	{field: "text", extract: extractText},
	{field: "image", extract: extractImage},
	{field: "cooking_time", extract: extractCookingTime},
	{field: "ingredients", extract: extractIngredients},
}

// Parse translates and normalizes raw into records tagged with tag. Records
// without a name or with a non-positive cooking time are dropped. Any
// translation failure aborts the whole batch with a *TranslationError.
func (p *Parser) Parse(ctx context.Context, raw []RawRecipe, tag string) ([]RecipeRecord, error) {
	translator := &batchTranslator{translator: p.translator, cache: map[string]string{}}
	records := make([]RecipeRecord, 0, len(raw))

	for _, item := range raw {
		record := RecipeRecord{TagSlug: tag}
		for _, field := range recordFields {
			if err := field.extract(ctx, translator, item, &record); err != nil {
				return nil, err
			}
		}

		if strings.TrimSpace(record.Name) == "" {
			applog.Warn(ctx, "skipping recipe without a name", "tag", tag)
			continue
		}
		if record.CookingTime <= 0 {
			applog.Warn(ctx, "skipping recipe without cooking time", "recipe", record.Name, "cookingTime", record.CookingTime)
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func extractName(ctx context.Context, t *batchTranslator, raw RawRecipe, record *RecipeRecord) error {
	name := strings.TrimSpace(raw.Title)
	if name == "" {
		name = strings.TrimSpace(raw.Name)
	}
	translated, err := t.translate(ctx, name)
	if err != nil {
		return err
	}
	record.Name = strings.TrimSpace(translated)
	return nil
}

func extractText(ctx context.Context, t *batchTranslator, raw RawRecipe, record *RecipeRecord) error {
	text, err := stripHTML(raw.Summary)
	if err != nil {
		return err
	}
	translated, err := t.translate(ctx, text)
	if err != nil {
		return err
	}
	record.Text = strings.TrimSpace(translated)
	return nil
}

func extractImage(_ context.Context, _ *batchTranslator, raw RawRecipe, record *RecipeRecord) error {
	record.ImageURL = strings.TrimSpace(raw.Image)
	return nil
}

func extractCookingTime(_ context.Context, _ *batchTranslator, raw RawRecipe, record *RecipeRecord) error {
	record.CookingTime = raw.ReadyInMinutes
	return nil
}

func extractIngredients(ctx context.Context, t *batchTranslator, raw RawRecipe, record *RecipeRecord) error {
	ingredients := make([]IngredientRecord, 0, len(raw.ExtendedIngredients))
	for _, item := range raw.ExtendedIngredients {
		amount := int(math.Ceil(item.Measures.US.Amount))
		if amount <= 0 {
			applog.Warn(ctx, "skipping ingredient without amount", "ingredient", item.Name, "amount", item.Measures.US.Amount)
			continue
		}

		name, err := t.translate(ctx, strings.TrimSpace(item.Name))
		if err != nil {
			return err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		unit, err := t.translate(ctx, strings.ToLower(strings.TrimSpace(item.Measures.US.UnitLong)))
		if err != nil {
			return err
		}
		unit = strings.TrimSpace(unit)
		if unit == "" {
			unit = DefaultUnit
		}

		ingredients = append(ingredients, IngredientRecord{Name: name, Amount: amount, MeasurementUnit: unit})
	}
	record.Ingredients = ingredients
	return nil
}

func stripHTML(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(value))
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// batchTranslator memoizes translations for the duration of one Parse call.
// Units and common ingredients repeat across a batch.
type batchTranslator struct {
	translator Translator
	cache      map[string]string
}

func (t *batchTranslator) translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if cached, ok := t.cache[text]; ok {
		return cached, nil
	}
	translated, err := t.translator.Translate(ctx, text)
	if err != nil {
		return "", &TranslationError{Text: text, Err: err}
	}
	t.cache[text] = translated
	return translated, nil
}
