package bot

// User-facing strings. The bot speaks Russian; product input stays English
// because the search queries target English-language supplier sites.

const welcomeMessage = `🔬 <b>Бот для поиска китайских поставщиков химического сырья</b>

Этот бот поможет вам найти производителей и торговые компании в Китае.

<b>Как использовать:</b>
1. Отправьте /search чтобы начать поиск
2. Введите данные о продукте
3. Получите список проверенных поставщиков

<b>Бот классифицирует компании как:</b>
🏭 Производитель (own factory)
🏢 Торговая компания (trading)
❓ Неясно (unclear)

Используйте /search для начала поиска.`

const searchPrompt = `📝 <b>Новый поиск поставщика</b>

Введите название химического продукта на английском языке.

<b>Примеры:</b>
- Sulfuric Acid
- Sodium Hydroxide
- Methanol
- Hydrogen Peroxide

Введите название продукта:`

// productAckFormat takes the HTML-escaped product name.
const productAckFormat = `✅ Продукт: <b>%s</b>

Введите CAS номер (или отправьте /skip если не знаете):

<b>Пример:</b> 7664-93-9`

const volumePrompt = `Введите требуемый объём (или отправьте /skip):

<b>Примеры:</b>
- 20,000 MT per month
- 500 tons per year
- 100 MT`

const packagingPrompt = `Введите требования к упаковке (или отправьте /skip):

<b>Примеры:</b>
- Bulk / ISO tank
- Drums
- IBC containers`

// summaryFormat takes the HTML-escaped product, CAS, volume and packaging,
// with empty optionals already replaced by "не указан"/"не указана".
const summaryFormat = `📋 <b>Параметры поиска:</b>

🧪 Продукт: %s
🔢 CAS: %s
📊 Объём: %s
📦 Упаковка: %s

⏳ <b>Начинаю поиск поставщиков...</b>
Это займёт 1-2 минуты.`

const notFoundMessage = "❌ Поставщики не найдены. Попробуйте изменить название продукта или использовать английское название."

const searchErrorFormat = "❌ Ошибка при поиске: %s\n\nПопробуйте снова с помощью /search"

const cancelledMessage = "❌ Поиск отменён. Используйте /search для нового поиска."

const idleHintMessage = "Используйте /search чтобы начать новый поиск."

const productRequiredMessage = "Название продукта обязательно. Введите название или отправьте /cancel."
