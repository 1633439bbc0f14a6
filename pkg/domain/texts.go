package domain

import "fmt"

const (
	StatsButton = "📊 Моя статистика"
	HelpButton  = "❓ Помощь"

	InputPlaceholder = "Отправь задание текстом или фото 📸"
)

const WelcomeText = `👋 Привет! Я ИИ-ГДЗ бот.

Пришли мне задание текстом или скриншотом — я решу и объясню 😎

📝 Просто напиши задачу или отправь фото
📚 Я помогу с математикой, физикой, химией, русским и другими предметами

Давай начнём! 🚀`

const HelpText = `📖 Как пользоваться ботом:

1️⃣ Отправь текст задания
   Просто напиши задачу в чат

2️⃣ Или отправь скриншот
   Сфотографируй задание и отправь фото

3️⃣ Получи решение
   Я подробно объясню решение и дам ответ

💡 Советы:
• Для фото — используй чёткие скриншоты
• Пиши задание полностью
• Указывай все данные из условия

🎓 Поддерживаемые предметы:
Математика, Алгебра, Геометрия, Физика, Химия, Русский язык, Литература, История, Биология, География, Английский и другие`

const (
	ThinkingText       = "🤖 Думаю над решением..."
	RecognizingText    = "📷 Распознаю текст на изображении..."
	EmptyInputText     = "❌ Пожалуйста, отправь текст задания."
	SolverFailedText   = "❌ Не удалось получить решение. Попробуй ещё раз позже.\nВозможно, сервис временно недоступен."
	GenericFailureText = "❌ Произошла ошибка при обработке. Попробуй ещё раз."
	UnknownCommandText = "🤔 Не знаю такой команды. Отправь задание текстом или фото, или набери /help."

	OCRFailedText = `❌ Не удалось распознать текст на изображении.

💡 Советы:
• Используй более чёткий скриншот
• Убедись, что текст хорошо виден
• Попробуй обрезать лишние части изображения
• Или напиши задание текстом`

	DocumentUnsupportedText = `📎 Я пока не умею обрабатывать документы.

Пожалуйста, отправь:
• Текст задания
• Или фото/скриншот`
)

func InputTooLongText(limit int) string {
	return fmt.Sprintf("❌ Текст слишком длинный. Максимум %d символов.\nПопробуй сократить или разбить на части.", limit)
}

func RecognizedTooLongText(length int) string {
	return fmt.Sprintf("❌ Распознанный текст слишком длинный (%d символов).\nПопробуй отправить изображение с меньшим количеством текста.", length)
}

func RecognizedPreviewText(preview string, truncated bool) string {
	ellipsis := ""
	if truncated {
		ellipsis = "..."
	}
	return fmt.Sprintf("📝 Распознанный текст:\n\n%s%s\n\n%s", preview, ellipsis, ThinkingText)
}

func ContinuationLabel(index, total int) string {
	return fmt.Sprintf("📄 Продолжение (%d/%d):\n\n", index, total)
}

func StatsText(stats Stats) string {
	return fmt.Sprintf("📊 Твоя статистика:\n\n📝 Всего запросов: %d\n\nПродолжай учиться! 💪", stats.TotalRequests)
}
