package detect

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bridgewarden/bridgewarden/internal/model"
)

// corePhrases are the Class B multilingual phrase rules. A firing phrase
// emits its code and records a language hint for the matching language.
// Accent-stripped spellings are listed alongside the accented forms so
// that NFKC-normalized and typo'd inputs still match.
var corePhrases = map[string]map[model.ReasonCode][]string{
	"en": {
		model.ReasonInstructionOverride: {"ignore previous instructions"},
		model.ReasonStealthInstruction:  {"do not mention", "do not acknowledge"},
		model.ReasonResponseConstraint:  {"respond with only", "reply with only", "return only"},
		model.ReasonDirectToolCall:      {"call the tool", "use the tool", "invoke the tool"},
		model.ReasonDataExfiltration:    {"exfiltrate secrets", "leak secrets", "send secrets"},
		model.ReasonCommandCoercion:     {"run this command", "execute this command"},
	},
	"es": {
		model.ReasonInstructionOverride: {"ignora las instrucciones anteriores"},
		model.ReasonStealthInstruction:  {"no menciones", "no lo menciones"},
		model.ReasonResponseConstraint:  {"responde solo con", "responda solo con"},
		model.ReasonDirectToolCall:      {"usa la herramienta", "llama a la herramienta"},
		model.ReasonDataExfiltration:    {"exfiltra secretos", "filtra secretos", "envia secretos"},
		model.ReasonCommandCoercion:     {"ejecuta este comando", "ejecute este comando"},
	},
	"fr": {
		model.ReasonInstructionOverride: {
			"ignore les instructions precedentes",
			"ignore les instructions précédentes",
		},
		model.ReasonStealthInstruction: {"ne mentionne pas", "ne le mentionne pas"},
		model.ReasonResponseConstraint: {
			"reponds seulement",
			"réponds seulement",
			"repondez seulement",
			"répondez seulement",
		},
		model.ReasonDirectToolCall:   {"utilise l'outil", "appelle l'outil"},
		model.ReasonDataExfiltration: {"exfiltre les secrets", "envoie les secrets"},
		model.ReasonCommandCoercion:  {"execute cette commande", "exécute cette commande"},
	},
	"de": {
		model.ReasonInstructionOverride: {"ignoriere die vorherigen anweisungen"},
		model.ReasonStealthInstruction:  {"erwahne das nicht", "erwähne das nicht"},
		model.ReasonResponseConstraint:  {"antworte nur mit", "antworten sie nur mit"},
		model.ReasonDirectToolCall:      {"benutze das tool", "rufe das tool auf"},
		model.ReasonDataExfiltration:    {"exfiltriere geheimnisse", "sende geheimnisse"},
		model.ReasonCommandCoercion:     {"fuehre diesen befehl aus", "führe diesen befehl aus"},
	},
	"pt": {
		model.ReasonInstructionOverride: {
			"ignore as instrucoes anteriores",
			"ignore as instruções anteriores",
		},
		model.ReasonStealthInstruction: {"nao mencione", "não mencione"},
		model.ReasonResponseConstraint: {"responda apenas com", "responde apenas com"},
		model.ReasonDirectToolCall:     {"use a ferramenta", "chame a ferramenta"},
		model.ReasonDataExfiltration:   {"exfiltre segredos", "envie segredos"},
		model.ReasonCommandCoercion:    {"execute este comando", "execute esse comando"},
	},
	"ru": {
		model.ReasonInstructionOverride: {"игнорируй предыдущие инструкции"},
		model.ReasonStealthInstruction:  {"не упоминай", "не упоминайте"},
		model.ReasonResponseConstraint:  {"ответь только", "ответьте только"},
		model.ReasonDirectToolCall:      {"используй инструмент", "вызови инструмент"},
		model.ReasonDataExfiltration:    {"эксфильтруй секреты", "отправь секреты"},
		model.ReasonCommandCoercion:     {"выполни эту команду", "выполните эту команду"},
	},
	"zh": {
		model.ReasonInstructionOverride: {"忽略之前的指令", "忽略之前的说明"},
		model.ReasonStealthInstruction:  {"不要提及", "不要提到"},
		model.ReasonResponseConstraint:  {"只回复", "仅回复"},
		model.ReasonDirectToolCall:      {"使用工具", "调用工具"},
		model.ReasonDataExfiltration:    {"泄露秘密", "泄露机密", "外传机密"},
		model.ReasonCommandCoercion:     {"执行这个命令", "运行这个命令"},
	},
	"ja": {
		model.ReasonInstructionOverride: {"以前の指示を無視"},
		model.ReasonStealthInstruction:  {"言及しないで", "これは言及しないで"},
		model.ReasonResponseConstraint:  {"だけ返信", "のみ返信"},
		model.ReasonDirectToolCall:      {"ツールを使って", "ツールを呼び出して"},
		model.ReasonDataExfiltration:    {"秘密を外部に送信", "秘密を送信"},
		model.ReasonCommandCoercion:     {"このコマンドを実行"},
	},
	"ko": {
		model.ReasonInstructionOverride: {"이전 지시를 무시"},
		model.ReasonStealthInstruction:  {"언급하지 마", "이것을 언급하지 마"},
		model.ReasonResponseConstraint:  {"다음으로만 답변", "오직 답변"},
		model.ReasonDirectToolCall:      {"도구를 사용", "도구를 호출"},
		model.ReasonDataExfiltration:    {"비밀을 유출", "비밀을 전송"},
		model.ReasonCommandCoercion:     {"이 명령을 실행", "이 명령어를 실행"},
	},
}

// extendedPhrases are the Class C rules. They activate only for
// languages with at least one Class B hit.
var extendedPhrases = map[string]map[model.ReasonCode][]string{
	"en": {
		model.ReasonProcessSabotage:       {"skip the tests", "do not run the tests"},
		model.ReasonCodeTamperingCoercion: {"add a backdoor", "insert a backdoor"},
		model.ReasonDirectToolCall:        {"call the tool now", "use the tool now"},
		model.ReasonSensitiveFileAccess:   {"read /etc/passwd", "cat .env"},
	},
	"es": {
		model.ReasonProcessSabotage:       {"omite las pruebas", "no ejecutes las pruebas"},
		model.ReasonCodeTamperingCoercion: {"agrega una puerta trasera", "inserta una puerta trasera"},
		model.ReasonDirectToolCall:        {"usa la herramienta ahora", "llama a la herramienta ahora"},
		model.ReasonSensitiveFileAccess:   {"lee /etc/passwd", "lee el archivo .env"},
	},
	"fr": {
		model.ReasonProcessSabotage:       {"saute les tests", "n'execute pas les tests", "n'exécute pas les tests"},
		model.ReasonCodeTamperingCoercion: {"ajoute une porte derobee", "ajoute une porte dérobée"},
		model.ReasonDirectToolCall:        {"utilise l'outil maintenant", "appelle l'outil maintenant"},
		model.ReasonSensitiveFileAccess:   {"lis /etc/passwd", "lis le fichier .env"},
	},
	"de": {
		model.ReasonProcessSabotage: {
			"uberspringe die tests",
			"überspringe die tests",
			"fuehre die tests nicht aus",
		},
		model.ReasonCodeTamperingCoercion: {"fuge eine hintertur hinzu", "füge eine hintertür hinzu"},
		model.ReasonDirectToolCall:        {"benutze das tool jetzt", "rufe das tool jetzt auf"},
		model.ReasonSensitiveFileAccess:   {"lies /etc/passwd", "lies die datei .env"},
	},
	"pt": {
		model.ReasonProcessSabotage:       {"pule os testes", "nao execute os testes", "não execute os testes"},
		model.ReasonCodeTamperingCoercion: {"adicione uma porta dos fundos", "insira uma backdoor"},
		model.ReasonDirectToolCall:        {"use a ferramenta agora", "chame a ferramenta agora"},
		model.ReasonSensitiveFileAccess:   {"leia /etc/passwd", "leia o arquivo .env"},
	},
	"ru": {
		model.ReasonProcessSabotage:       {"пропусти тесты", "не запускай тесты"},
		model.ReasonCodeTamperingCoercion: {"добавь бэкдор", "вставь бэкдор"},
		model.ReasonDirectToolCall:        {"используй инструмент сейчас", "вызови инструмент сейчас"},
		model.ReasonSensitiveFileAccess:   {"прочитай /etc/passwd", "прочитай файл .env"},
	},
	"zh": {
		model.ReasonProcessSabotage:       {"跳过测试", "不要运行测试"},
		model.ReasonCodeTamperingCoercion: {"添加后门", "插入后门"},
		model.ReasonDirectToolCall:        {"使用工具现在", "调用工具现在"},
		model.ReasonSensitiveFileAccess:   {"读取 /etc/passwd", "读取 .env"},
	},
	"ja": {
		model.ReasonProcessSabotage:       {"テストをスキップ", "テストを実行しないで"},
		model.ReasonCodeTamperingCoercion: {"バックドアを追加", "バックドアを挿入"},
		model.ReasonDirectToolCall:        {"ツールを使って今", "ツールを呼び出して今"},
		model.ReasonSensitiveFileAccess:   {"/etc/passwd を読んで", ".env を読んで"},
	},
	"ko": {
		model.ReasonProcessSabotage:       {"테스트를 건너뛰", "테스트를 실행하지 마"},
		model.ReasonCodeTamperingCoercion: {"백도어 추가", "백도어 삽입"},
		model.ReasonDirectToolCall:        {"도구를 사용 지금", "도구를 호출 지금"},
		model.ReasonSensitiveFileAccess:   {"/etc/passwd 를 읽어", ".env 를 읽어"},
	},
}

// languageRule is a compiled phrase rule for one language and code.
type languageRule struct {
	Code       model.ReasonCode
	Pattern    *regexp.Regexp
	MinProfile string
	Phrases    []string
}

var (
	coreLanguageRules     = buildLanguageRules(corePhrases)
	extendedLanguageRules = buildLanguageRules(extendedPhrases)
	languageOrder         = sortedLanguages()
)

// compilePhrases builds a case-insensitive alternation in which internal
// whitespace matches one-or-more whitespace characters.
func compilePhrases(phrases []string) *regexp.Regexp {
	escaped := make([]string, len(phrases))
	for i, phrase := range phrases {
		escaped[i] = strings.ReplaceAll(regexp.QuoteMeta(phrase), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(escaped, "|"))
}

func buildLanguageRules(phraseMap map[string]map[model.ReasonCode][]string) map[string][]languageRule {
	rulesByLanguage := make(map[string][]languageRule, len(phraseMap))
	for language, codes := range phraseMap {
		rules := make([]languageRule, 0, len(codes))
		for _, code := range sortedCodes(codes) {
			minProfile, ok := minProfileByCode[code]
			if !ok {
				minProfile = ProfileStrict
			}
			rules = append(rules, languageRule{
				Code:       code,
				Pattern:    compilePhrases(codes[code]),
				MinProfile: minProfile,
				Phrases:    codes[code],
			})
		}
		rulesByLanguage[language] = rules
	}
	return rulesByLanguage
}

func sortedCodes(m map[model.ReasonCode][]string) []model.ReasonCode {
	codes := make([]model.ReasonCode, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func sortedLanguages() []string {
	langs := make([]string, 0, len(corePhrases))
	for lang := range corePhrases {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
